// Package seeds provides functionality for loading watcher definitions from files.
package seeds

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/threadsync/internal/domain"
)

var (
	// ErrInvalidSeedFormat indicates the seed entry format is invalid
	ErrInvalidSeedFormat = errors.New("invalid seed format")
	// ErrMissingRequiredField indicates a required field is missing
	ErrMissingRequiredField = errors.New("missing required field")
)

// Seed describes one watcher to register at startup. The schedule fields
// mirror the create-watcher API: interval seeds carry interval_minutes,
// calendar seeds carry a cron expression.
type Seed struct {
	URL             string `mapstructure:"url"`
	Schedule        string `mapstructure:"schedule"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	CronExpression  string `mapstructure:"cron"`
}

// DomainSchedule converts the seed's schedule fields to a domain schedule.
func (s Seed) DomainSchedule() domain.Schedule {
	return domain.Schedule{
		Kind:            domain.ScheduleKind(s.Schedule),
		IntervalMinutes: s.IntervalMinutes,
		CronExpression:  s.CronExpression,
	}
}

// seedsFile represents the structure of a watchers YAML file.
type seedsFile struct {
	Watchers []map[string]any `yaml:"watchers"`
}

// Loader handles loading and validating watcher seeds.
type Loader struct {
	seedPath string
}

// NewLoader creates a new Loader instance.
func NewLoader(seedPath string) *Loader {
	return &Loader{
		seedPath: seedPath,
	}
}

// LoadSeeds loads and validates all watcher seeds from the seed file.
// A missing file is not an error: the server runs without seeds. Entries
// that fail validation are skipped so one bad seed cannot block the rest.
func (l *Loader) LoadSeeds() ([]Seed, error) {
	raw, err := l.loadRawSeeds()
	if err != nil {
		return nil, fmt.Errorf("failed to load raw seeds: %w", err)
	}

	return l.validateAndConvertSeeds(raw), nil
}

// loadRawSeeds loads the raw seed data from the seed file.
func (l *Loader) loadRawSeeds() ([]map[string]any, error) {
	data, err := os.ReadFile(l.seedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file seedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return file.Watchers, nil
}

// validateAndConvertSeeds validates and converts raw entries to Seed structs.
func (l *Loader) validateAndConvertSeeds(raw []map[string]any) []Seed {
	seedList := make([]Seed, 0, len(raw))
	for _, entry := range raw {
		seed, convertErr := l.convertToSeed(entry)
		if convertErr != nil {
			continue
		}
		if validateErr := l.validateSeed(&seed); validateErr != nil {
			continue
		}
		seedList = append(seedList, seed)
	}

	return seedList
}

// convertToSeed converts a raw entry map to a Seed struct.
func (l *Loader) convertToSeed(entry map[string]any) (Seed, error) {
	var seed Seed
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &seed,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Seed{}, fmt.Errorf("failed to create decoder: %w", err)
	}

	if decodeErr := decoder.Decode(entry); decodeErr != nil {
		return Seed{}, fmt.Errorf("failed to decode seed: %w", decodeErr)
	}

	return seed, nil
}

// validateSeed validates a watcher seed.
func (l *Loader) validateSeed(seed *Seed) error {
	if seed == nil {
		return errors.New("seed cannot be nil")
	}

	if seed.URL == "" {
		return fmt.Errorf("%w: url", ErrMissingRequiredField)
	}

	parsed, err := url.Parse(seed.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: invalid URL %q", ErrInvalidSeedFormat, seed.URL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSeedFormat, parsed.Scheme)
	}

	// Infer the schedule kind when omitted so seed files stay terse.
	if seed.Schedule == "" {
		switch {
		case seed.IntervalMinutes > 0:
			seed.Schedule = string(domain.ScheduleInterval)
		case seed.CronExpression != "":
			seed.Schedule = string(domain.ScheduleCalendar)
		default:
			return fmt.Errorf("%w: schedule", ErrMissingRequiredField)
		}
	}

	switch domain.ScheduleKind(seed.Schedule) {
	case domain.ScheduleInterval:
		if seed.IntervalMinutes < 1 {
			return fmt.Errorf("%w: interval_minutes must be at least 1", ErrInvalidSeedFormat)
		}
	case domain.ScheduleCalendar:
		if seed.CronExpression == "" {
			return fmt.Errorf("%w: cron", ErrMissingRequiredField)
		}
	default:
		return fmt.Errorf("%w: unknown schedule %q", ErrInvalidSeedFormat, seed.Schedule)
	}

	return nil
}
