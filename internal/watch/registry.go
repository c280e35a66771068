// Package watch owns the set of active thread watchers and drives their
// schedules. Each watcher runs in its own goroutine so one slow or failing
// thread never delays another; run outcomes are recorded on the watcher and
// the schedule continues regardless of failures.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/threadsync/internal/config"
	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/logger"
	"github.com/jonesrussell/threadsync/internal/normalize"
	"github.com/jonesrussell/threadsync/internal/syncer"
	"github.com/jonesrussell/threadsync/internal/watch/seeds"
)

// ErrWatcherStopped indicates an operation on a watcher that has been
// stopped. Stopped is terminal; the only recovery is stop-then-create.
var ErrWatcherStopped = errors.New("watcher is stopped")

// Syncer runs one sync cycle for a thread. *syncer.Orchestrator satisfies it.
type Syncer interface {
	Sync(ctx context.Context, threadURL string, opts syncer.Options) (*domain.SyncResult, error)
}

// Registry owns the active watchers, keyed by ID and by canonical thread URL.
// At most one active watcher may exist per thread; replace semantics are
// deliberately stop-then-create.
type Registry struct {
	runner Syncer
	loc    *time.Location
	logger logger.Interface

	mu       sync.RWMutex
	watchers map[string]*watcher
	byURL    map[string]string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// watcher is the registry's internal record for one watched thread. The
// target and schedule are immutable after creation; run state mutates under
// the watcher's own mutex so registries never block on a slow run.
type watcher struct {
	id        string
	threadURL string
	schedule  domain.Schedule
	plan      *plan
	createdAt time.Time
	cancel    context.CancelFunc

	mu         sync.Mutex
	status     domain.WatcherStatus
	threadUUID string
	nextRunAt  time.Time
	lastRunAt  time.Time
	lastResult *domain.SyncResult
	lastError  string
	syncCount  int
	errorCount int
}

// NewRegistry creates a watcher registry. Calendar schedules are evaluated
// in the configured timezone; interval schedules are location-independent.
func NewRegistry(runner Syncer, cfg *config.ScheduleConfig, log logger.Interface) (*Registry, error) {
	if runner == nil {
		return nil, errors.New("watch: syncer is required")
	}

	loc := time.UTC
	if cfg != nil && cfg.Timezone != "" {
		parsed, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("watch: invalid timezone %q: %w", cfg.Timezone, err)
		}
		loc = parsed
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		runner:   runner,
		loc:      loc,
		logger:   log,
		watchers: make(map[string]*watcher),
		byURL:    make(map[string]string),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Create registers a watcher for a thread and starts its run loop. The
// target is canonicalized first so URL variants of the same thread cannot
// produce two watchers; a thread that is already watched is rejected.
func (r *Registry) Create(threadURL string, sched domain.Schedule) (*domain.WatcherView, error) {
	canonical, err := normalize.CanonicalThreadURL(threadURL)
	if err != nil {
		return nil, fmt.Errorf("invalid thread target %q: %v: %w", threadURL, err, domain.ErrMalformedSnapshot)
	}

	compiled, err := compilePlan(sched, r.loc)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byURL[canonical]; ok {
		return nil, fmt.Errorf("thread %s already watched by %s: %w", canonical, existing, domain.ErrDuplicateWatcher)
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(r.ctx)
	w := &watcher{
		id:        uuid.NewString(),
		threadURL: canonical,
		schedule:  sched,
		plan:      compiled,
		createdAt: now,
		cancel:    cancel,
		status:    domain.WatcherScheduled,
		nextRunAt: compiled.first(now),
	}

	r.watchers[w.id] = w
	r.byURL[canonical] = w.id

	r.wg.Add(1)
	go r.runLoop(ctx, w)

	r.logger.Info("watcher created",
		"watcher_id", w.id,
		"thread_url", canonical,
		"schedule", string(sched.Kind),
		"next_run_at", w.nextRunAt)

	return w.view(), nil
}

// Get returns the current state of one watcher.
func (r *Registry) Get(id string) (*domain.WatcherView, error) {
	r.mu.RLock()
	w, ok := r.watchers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("watcher %q: %w", id, domain.ErrNotFound)
	}
	return w.view(), nil
}

// List returns all watchers, stopped ones included, oldest first.
func (r *Registry) List() []*domain.WatcherView {
	r.mu.RLock()
	views := make([]*domain.WatcherView, 0, len(r.watchers))
	for _, w := range r.watchers {
		views = append(views, w.view())
	}
	r.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

// Stop cancels a watcher's future executions and marks it stopped. An
// in-flight run is allowed to finish; its outcome is still recorded. The
// thread becomes free to watch again immediately. Stopping twice is a no-op.
func (r *Registry) Stop(id string) error {
	r.mu.Lock()
	w, ok := r.watchers[id]
	if ok && r.byURL[w.threadURL] == id {
		delete(r.byURL, w.threadURL)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("watcher %q: %w", id, domain.ErrNotFound)
	}

	w.cancel()
	w.markStopped()

	r.logger.Info("watcher stopped", "watcher_id", id, "thread_url", w.threadURL)
	return nil
}

// ForceRun executes one sync cycle for a watcher immediately and
// synchronously, outside its schedule. The next scheduled run time is not
// disturbed. The run outcome is recorded on the watcher like any other run.
func (r *Registry) ForceRun(ctx context.Context, id string) (*domain.SyncResult, error) {
	r.mu.RLock()
	w, ok := r.watchers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("watcher %q: %w", id, domain.ErrNotFound)
	}
	if w.currentStatus() == domain.WatcherStopped {
		return nil, fmt.Errorf("watcher %q: %w", id, ErrWatcherStopped)
	}

	w.markRunning(time.Now())
	result, err := r.runner.Sync(ctx, w.threadURL, syncer.Options{})
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			// Another run for the same thread is mid-flight; nothing to record.
			w.clearRunning()
		} else {
			w.recordFailure(err)
		}
		return nil, err
	}

	w.recordSuccess(result)
	return result, nil
}

// RegisterSeeds creates a watcher for every seed. Seeding is best-effort:
// a seed that is already watched or fails validation is logged and skipped
// so one bad entry cannot prevent startup.
func (r *Registry) RegisterSeeds(seedList []seeds.Seed) {
	for _, seed := range seedList {
		view, err := r.Create(seed.URL, seed.DomainSchedule())
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateWatcher) {
				r.logger.Debug("seed already watched", "url", seed.URL)
				continue
			}
			r.logger.Warn("failed to register watcher seed", "url", seed.URL, "error", err)
			continue
		}
		r.logger.Info("watcher seeded", "watcher_id", view.ID, "thread_url", view.ThreadURL)
	}
}

// Shutdown stops every watcher loop and waits for in-flight runs to finish,
// bounded by the given context.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("watch: shutdown wait: %w", ctx.Err())
	}
}

// runLoop waits out each watcher's schedule and executes runs until the
// watcher is stopped or the registry shuts down.
func (r *Registry) runLoop(ctx context.Context, w *watcher) {
	defer r.wg.Done()

	for {
		wait := time.Until(w.nextRun())
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		r.execute(w, start)
		w.setNextRun(w.plan.next(start, time.Now()))
	}
}

// execute runs one scheduled sync cycle and records its outcome. Runs are
// deliberately not bound to the loop context: a stop or shutdown lets the
// in-flight cycle finish rather than killing it mid-write. A panic escaping
// the sync is recovered here so the loop survives.
func (r *Registry) execute(w *watcher, start time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			w.recordFailure(fmt.Errorf("panic: %v", rec))
			r.logger.Error("watcher run panicked", "watcher_id", w.id, "panic", rec)
		}
	}()

	w.markRunning(start)
	result, err := r.runner.Sync(context.Background(), w.threadURL, syncer.Options{})
	switch {
	case err == nil:
		w.recordSuccess(result)
		r.logger.Info("watcher sync completed",
			"watcher_id", w.id,
			"thread_url", w.threadURL,
			"inserted", result.Inserted,
			"updated", result.Updated)
	case errors.Is(err, domain.ErrSyncInProgress):
		// A force sync for the same thread is mid-flight; skip this tick.
		w.clearRunning()
		r.logger.Debug("watcher tick skipped, sync already in flight", "watcher_id", w.id)
	default:
		w.recordFailure(err)
		r.logger.Error("watcher sync failed",
			"watcher_id", w.id,
			"thread_url", w.threadURL,
			"error", err)
	}
}

func (w *watcher) nextRun() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextRunAt
}

func (w *watcher) setNextRun(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextRunAt = t
}

func (w *watcher) currentStatus() domain.WatcherStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *watcher) markRunning(start time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == domain.WatcherStopped {
		return
	}
	w.status = domain.WatcherRunning
	w.lastRunAt = start
}

// clearRunning returns a running watcher to scheduled without recording a
// run, used when a tick is skipped.
func (w *watcher) clearRunning() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == domain.WatcherRunning {
		w.status = domain.WatcherScheduled
	}
}

func (w *watcher) recordSuccess(result *domain.SyncResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != domain.WatcherStopped {
		w.status = domain.WatcherScheduled
	}
	if result != nil && result.ThreadUUID != "" {
		w.threadUUID = result.ThreadUUID
	}
	w.lastResult = result
	w.lastError = ""
	w.syncCount++
}

func (w *watcher) recordFailure(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != domain.WatcherStopped {
		w.status = domain.WatcherErrored
	}
	w.lastError = err.Error()
	w.errorCount++
}

// markStopped is terminal: it wins over any concurrent run bookkeeping.
func (w *watcher) markStopped() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = domain.WatcherStopped
	w.nextRunAt = time.Time{}
}

// view snapshots the watcher into its externally visible form.
func (w *watcher) view() *domain.WatcherView {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := &domain.WatcherView{
		ID:         w.id,
		ThreadURL:  w.threadURL,
		ThreadUUID: w.threadUUID,
		Schedule:   w.schedule,
		Status:     w.status,
		CreatedAt:  w.createdAt,
		LastError:  w.lastError,
		SyncCount:  w.syncCount,
		ErrorCount: w.errorCount,
	}
	if !w.nextRunAt.IsZero() {
		next := w.nextRunAt
		v.NextRunAt = &next
	}
	if !w.lastRunAt.IsZero() {
		last := w.lastRunAt
		v.LastRunAt = &last
	}
	if w.lastResult != nil {
		result := *w.lastResult
		v.LastResult = &result
	}
	return v
}
