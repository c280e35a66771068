package watch

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// ErrInvalidSchedule indicates a schedule descriptor that cannot be compiled.
var ErrInvalidSchedule = errors.New("invalid schedule")

// cronParser accepts standard five-field cron expressions plus an optional
// leading seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// plan is a compiled schedule. It answers "when does this watcher run next"
// as a pure computation over wall-clock inputs; it holds no watcher state.
type plan struct {
	kind     domain.ScheduleKind
	interval time.Duration
	cron     cron.Schedule
	loc      *time.Location
}

// compilePlan validates a schedule descriptor and compiles it. Calendar
// expressions are parsed exactly once here, so a watcher can never reach its
// run loop with an expression that fails to parse.
func compilePlan(sched domain.Schedule, loc *time.Location) (*plan, error) {
	switch sched.Kind {
	case domain.ScheduleInterval:
		if sched.IntervalMinutes < 1 {
			return nil, fmt.Errorf("%w: interval must be at least one minute", ErrInvalidSchedule)
		}
		return &plan{
			kind:     domain.ScheduleInterval,
			interval: time.Duration(sched.IntervalMinutes) * time.Minute,
			loc:      loc,
		}, nil

	case domain.ScheduleCalendar:
		if sched.CronExpression == "" {
			return nil, fmt.Errorf("%w: calendar schedule requires a cron expression", ErrInvalidSchedule)
		}
		parsed, err := cronParser.Parse(sched.CronExpression)
		if err != nil {
			return nil, fmt.Errorf("%w: cron %q: %v", ErrInvalidSchedule, sched.CronExpression, err)
		}
		return &plan{
			kind: domain.ScheduleCalendar,
			cron: parsed,
			loc:  loc,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSchedule, sched.Kind)
	}
}

// first computes the initial run time for a watcher created at now.
func (p *plan) first(now time.Time) time.Time {
	if p.kind == domain.ScheduleCalendar {
		return p.cron.Next(now.In(p.loc))
	}
	return now.Add(p.interval)
}

// next computes the run after one that started at lastStart, observed at
// now. Interval schedules anchor on the run's start time; a deadline that
// has already passed fires immediately in the run loop, so missed ticks
// collapse into one catch-up run instead of bursting. Calendar schedules
// always look forward from the current time in the configured location.
func (p *plan) next(lastStart, now time.Time) time.Time {
	if p.kind == domain.ScheduleCalendar {
		return p.cron.Next(now.In(p.loc))
	}
	return lastStart.Add(p.interval)
}
