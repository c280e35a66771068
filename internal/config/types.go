// Package config provides configuration management for the threadsync
// service. Values come from an optional YAML file, environment variables
// (optionally via .env), and defaults, in ascending precedence of
// environment over file over defaults.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Sync     SyncConfig     `mapstructure:"sync"     yaml:"sync"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Search   SearchConfig   `mapstructure:"search"   yaml:"search"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"       yaml:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"  yaml:"idle_timeout"`
	Debug        bool          `mapstructure:"debug"         yaml:"debug"`
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("server address is required")
	}
	return nil
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"              yaml:"host"`
	Port            int           `mapstructure:"port"              yaml:"port"`
	User            string        `mapstructure:"user"              yaml:"user"`
	Password        string        `mapstructure:"password"          yaml:"password"`
	Name            string        `mapstructure:"name"              yaml:"name"`
	SSLMode         string        `mapstructure:"sslmode"           yaml:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// Validate checks the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return errors.New("database host is required")
	}
	if c.User == "" {
		return errors.New("database user is required")
	}
	if c.Name == "" {
		return errors.New("database name is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	return nil
}

// FetcherConfig holds thread fetcher configuration.
type FetcherConfig struct {
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	RequestDelay   time.Duration `mapstructure:"request_delay"   yaml:"request_delay"`
	Parallelism    int           `mapstructure:"parallelism"     yaml:"parallelism"`
	MaxPages       int           `mapstructure:"max_pages"       yaml:"max_pages"`
	// Cookie is sent verbatim on every request; forums behind a login
	// need a captured session cookie.
	Cookie string `mapstructure:"cookie" yaml:"cookie"`
}

// Validate checks the fetcher configuration.
func (c *FetcherConfig) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.New("fetcher request timeout must be positive")
	}
	if c.Parallelism <= 0 {
		return errors.New("fetcher parallelism must be positive")
	}
	if c.MaxPages <= 0 {
		return errors.New("fetcher max pages must be positive")
	}
	return nil
}

// SyncConfig holds sync engine configuration.
type SyncConfig struct {
	// MaxConcurrent caps the number of threads syncing at once;
	// per-thread serialization is enforced separately.
	MaxConcurrent int `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	// FetchTimeout bounds one full fetch (all pages) per sync cycle.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
}

// Validate checks the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.MaxConcurrent <= 0 {
		return errors.New("sync max_concurrent must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("sync fetch_timeout must be positive")
	}
	return nil
}

// ScheduleConfig holds scheduler configuration.
type ScheduleConfig struct {
	// Timezone is the fixed reference location for calendar (cron)
	// expressions, e.g. "UTC" or "America/Toronto".
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
	// SeedFile optionally points at a YAML file of watchers to register
	// at startup.
	SeedFile string `mapstructure:"seed_file" yaml:"seed_file"`
}

// Validate checks the schedule configuration.
func (c *ScheduleConfig) Validate() error {
	if c.Timezone == "" {
		return errors.New("schedule timezone is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid schedule timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// SearchConfig holds the optional content-index configuration.
type SearchConfig struct {
	Enabled   bool          `mapstructure:"enabled"    yaml:"enabled"`
	Addresses []string      `mapstructure:"addresses"  yaml:"addresses"`
	Username  string        `mapstructure:"username"   yaml:"username"`
	Password  string        `mapstructure:"password"   yaml:"password"`
	IndexName string        `mapstructure:"index_name" yaml:"index_name"`
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// Validate checks the search configuration when enabled.
func (c *SearchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Addresses) == 0 {
		return errors.New("search addresses are required when search is enabled")
	}
	if c.IndexName == "" {
		return errors.New("search index_name is required when search is enabled")
	}
	return nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string   `mapstructure:"level"        yaml:"level"`
	Encoding    string   `mapstructure:"encoding"     yaml:"encoding"`
	Development bool     `mapstructure:"development"  yaml:"development"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Fetcher.Validate(); err != nil {
		return fmt.Errorf("fetcher: %w", err)
	}
	if err := c.Sync.Validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}
