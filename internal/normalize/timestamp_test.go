package normalize_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonesrussell/threadsync/internal/normalize"
)

func TestEpochMillis(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int64
		wantErr bool
	}{
		// Digit-length heuristic
		{"ten digit string is seconds", "1700000000", 1700000000000, false},
		{"thirteen digit string is millis", "1700000000000", 1700000000000, false},
		{"ten digit int is seconds", 1700000000, 1700000000000, false},
		{"thirteen digit int64 is millis", int64(1700000000000), 1700000000000, false},
		{"float64 seconds", float64(1700000000), 1700000000000, false},
		{"json number seconds", json.Number("1700000000"), 1700000000000, false},

		// Calendar strings
		{"rfc3339 utc", "2023-11-14T22:13:20Z", 1700000000000, false},
		{"rfc3339 with offset", "2023-11-14T17:13:20-05:00", 1700000000000, false},
		{"offset without colon", "2023-11-14T17:13:20-0500", 1700000000000, false},
		{"space separated", "2023-11-14 22:13:20", 1700000000000, false},
		{"date only", "2023-11-14", 1699920000000, false},
		{"surrounding whitespace", "  1700000000  ", 1700000000000, false},

		// Error cases
		{"eleven digit numeric", "17000000000", 0, true},
		{"nine digit numeric", 170000000, 0, true},
		{"garbage string", "yesterday", 0, true},
		{"empty string", "", 0, true},
		{"nil", nil, 0, true},
		{"negative number", int64(-1700000000), 0, true},
		{"unsupported type", []string{"1700000000"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize.EpochMillis(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("EpochMillis(%v) expected error, got nil", tt.input)
				}
				return
			}

			if err != nil {
				t.Errorf("EpochMillis(%v) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("EpochMillis(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// The three source representations of one instant must collapse to one
// canonical value.
func TestEpochMillis_SameInstant(t *testing.T) {
	inputs := []any{
		"1700000000",
		int64(1700000000000),
		"2023-11-14T22:13:20Z",
	}

	const want = int64(1700000000000)

	for _, input := range inputs {
		got, err := normalize.EpochMillis(input)
		if err != nil {
			t.Fatalf("EpochMillis(%v) unexpected error: %v", input, err)
		}

		if got != want {
			t.Errorf("EpochMillis(%v) = %d, want %d", input, got, want)
		}
	}
}

func TestEpochMillis_TimeValue(t *testing.T) {
	instant := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	got, err := normalize.EpochMillis(instant)
	if err != nil {
		t.Fatalf("EpochMillis(time.Time) unexpected error: %v", err)
	}

	if got != instant.UnixMilli() {
		t.Errorf("EpochMillis(time.Time) = %d, want %d", got, instant.UnixMilli())
	}
}
