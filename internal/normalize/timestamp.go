package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	secondsDigits   = 10
	millisDigits    = 13
	millisPerSecond = 1000
)

// calendarLayouts are tried in order when a timestamp is not purely numeric.
// XenForo emits RFC 3339 in <time datetime="...">, minus the colon in the
// zone offset on some installs; scraped fallbacks carry the space-separated
// and date-only forms.
var calendarLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var errEmptyTimestamp = errors.New("epoch millis: empty timestamp")

// EpochMillis coerces the loosely typed timestamps emitted by forum pages
// into epoch milliseconds UTC. A purely numeric value is disambiguated by
// digit length: 10 digits is unix seconds, 13 digits is unix milliseconds.
// Anything else is parsed as a calendar date string.
func EpochMillis(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errEmptyTimestamp
	case time.Time:
		return t.UnixMilli(), nil
	case int64:
		return numericEpochMillis(t)
	case int:
		return numericEpochMillis(int64(t))
	case float64:
		return numericEpochMillis(int64(t))
	case json.Number:
		return parseTimestampString(t.String())
	case string:
		return parseTimestampString(t)
	default:
		return 0, fmt.Errorf("epoch millis: unsupported timestamp type %T", v)
	}
}

func parseTimestampString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyTimestamp
	}

	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("epoch millis: %w", err)
		}

		return numericEpochMillis(n)
	}

	for _, layout := range calendarLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC().UnixMilli(), nil
		}
	}

	return 0, fmt.Errorf("epoch millis: unrecognized timestamp %q", s)
}

// numericEpochMillis applies the digit-length heuristic to a numeric value.
func numericEpochMillis(n int64) (int64, error) {
	switch digitCount(n) {
	case secondsDigits:
		return n * millisPerSecond, nil
	case millisDigits:
		return n, nil
	default:
		return 0, fmt.Errorf("epoch millis: %d is neither unix seconds nor unix milliseconds", n)
	}
}

func digitCount(n int64) int {
	if n <= 0 {
		return 0
	}

	count := 0
	for n > 0 {
		n /= 10
		count++
	}

	return count
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return len(s) > 0
}
