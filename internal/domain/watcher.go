package domain

import "time"

// ScheduleKind selects how a watcher's next run is computed.
type ScheduleKind string

const (
	// ScheduleInterval runs on a fixed period from each run's start.
	ScheduleInterval ScheduleKind = "interval"
	// ScheduleCalendar runs on a cron expression in the configured timezone.
	ScheduleCalendar ScheduleKind = "calendar"
)

// Schedule describes a watcher's cadence. Exactly one of IntervalMinutes or
// CronExpression is meaningful, selected by Kind.
type Schedule struct {
	Kind            ScheduleKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	IntervalMinutes int          `json:"interval_minutes,omitempty" yaml:"interval_minutes" mapstructure:"interval_minutes"`
	CronExpression  string       `json:"cron_expression,omitempty" yaml:"cron_expression" mapstructure:"cron_expression"`
}

// WatcherStatus is the lifecycle state of a watcher.
type WatcherStatus string

const (
	// WatcherScheduled means the watcher is idle, waiting for its next run.
	WatcherScheduled WatcherStatus = "scheduled"
	// WatcherRunning means a sync cycle is in flight.
	WatcherRunning WatcherStatus = "running"
	// WatcherErrored means the last run failed; the schedule continues.
	WatcherErrored WatcherStatus = "errored"
	// WatcherStopped is terminal: no future runs.
	WatcherStopped WatcherStatus = "stopped"
)

// WatcherView is the externally visible state of one watcher. The schedule
// and target are immutable after creation; only status and timing mutate.
type WatcherView struct {
	ID         string        `json:"id"`
	ThreadURL  string        `json:"thread_url"`
	ThreadUUID string        `json:"thread_uuid,omitempty"`
	Schedule   Schedule      `json:"schedule"`
	Status     WatcherStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	// NextRunAt is the next scheduled execution (nil once stopped).
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	// LastRunAt is when the most recent run started.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	// LastResult summarizes the most recent completed run.
	LastResult *SyncResult `json:"last_result,omitempty"`
	// LastError holds the most recent run failure, empty after a success.
	LastError string `json:"last_error,omitempty"`
	// SyncCount counts completed successful runs.
	SyncCount int `json:"sync_count"`
	// ErrorCount counts failed runs.
	ErrorCount int `json:"error_count"`
}
