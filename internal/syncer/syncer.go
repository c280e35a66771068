// Package syncer drives sync cycles: fetch a thread, normalize the
// snapshot, resolve post identities, diff against stored state, and apply
// the changeset in one transaction. It owns per-thread serialization and
// the global concurrency bound.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/threadsync/internal/config"
	"github.com/jonesrussell/threadsync/internal/diff"
	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/fetcher"
	"github.com/jonesrussell/threadsync/internal/identity"
	"github.com/jonesrussell/threadsync/internal/logger"
	"github.com/jonesrussell/threadsync/internal/normalize"
	"github.com/jonesrussell/threadsync/internal/store"
)

// Options tune one sync cycle.
type Options struct {
	// IncludeReactionDetail fetches exact reaction totals per post. It
	// forces a full walk so every post's count is refreshed.
	IncludeReactionDetail bool

	// DryRun computes and returns the changeset without writing anything.
	DryRun bool
}

// Interface is the sync surface watchers and HTTP handlers consume.
type Interface interface {
	Sync(ctx context.Context, threadURL string, opts Options) (*domain.SyncResult, error)
}

// PostIndexer mirrors written posts into a search index. The index is a
// rebuildable mirror: indexing failures never fail a sync.
type PostIndexer interface {
	IndexPosts(ctx context.Context, thread *domain.Thread, posts []domain.Post) error
}

// Orchestrator coordinates sync cycles across threads. Cycles for the same
// thread never overlap; cycles for different threads run concurrently up
// to the configured bound.
type Orchestrator struct {
	fetcher      fetcher.Interface
	store        store.SyncStore
	indexer      PostIndexer
	logger       logger.Interface
	fetchTimeout time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
	sem      chan struct{}
}

// New creates a sync orchestrator.
func New(f fetcher.Interface, st store.SyncStore, cfg *config.SyncConfig, log logger.Interface) *Orchestrator {
	return &Orchestrator{
		fetcher:      f,
		store:        st,
		logger:       log.WithComponent("syncer"),
		fetchTimeout: cfg.FetchTimeout,
		inFlight:     map[string]struct{}{},
		sem:          make(chan struct{}, cfg.MaxConcurrent),
	}
}

// WithIndexer attaches an optional search indexer.
func (o *Orchestrator) WithIndexer(idx PostIndexer) *Orchestrator {
	o.indexer = idx
	return o
}

// Sync runs one cycle for the thread at threadURL and returns its result.
// A second call for the same thread while one is running is rejected with
// ErrSyncInProgress. The fetch completes in full before any write begins.
func (o *Orchestrator) Sync(ctx context.Context, threadURL string, opts Options) (*domain.SyncResult, error) {
	started := time.Now()

	canonical, err := normalize.CanonicalThreadURL(threadURL)
	if err != nil {
		return nil, fmt.Errorf("invalid thread target %q: %v: %w", threadURL, err, domain.ErrMalformedSnapshot)
	}

	if err := o.acquire(canonical); err != nil {
		return nil, err
	}
	defer o.release(canonical)

	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("sync canceled while waiting for a slot: %w", ctx.Err())
	}
	defer func() { <-o.sem }()

	existing, stored, err := o.loadStored(ctx, canonical)
	if err != nil {
		return nil, err
	}
	firstSync := existing == nil

	raw, err := o.fetch(ctx, canonical, stored, opts)
	if err != nil {
		return nil, err
	}

	thread, fresh, err := normalize.Snapshot(raw)
	if err != nil {
		return nil, err
	}
	if !firstSync {
		thread.UUID = existing.UUID
	}

	resolutions := identity.Resolve(fresh, stored)
	changeset, err := diff.Compute(fresh, resolutions, stored)
	if err != nil {
		return nil, err
	}
	if raw.Partial {
		// A walk that starts mid-thread cannot observe absence.
		changeset.MissingInFetch = 0
	}

	result := &domain.SyncResult{
		ThreadUUID:     thread.UUID,
		ThreadURL:      canonical,
		FirstSync:      firstSync,
		DryRun:         opts.DryRun,
		Inserted:       len(changeset.Inserted),
		Updated:        len(changeset.Updated),
		Unchanged:      changeset.Unchanged,
		MissingInFetch: changeset.MissingInFetch,
		FetchedPosts:   len(fresh),
		Changeset:      changeset,
	}

	if !opts.DryRun {
		if applyErr := o.store.ApplyChangeset(ctx, thread, changeset); applyErr != nil {
			return nil, applyErr
		}
		result.ThreadUUID = thread.UUID
		o.index(ctx, thread, changeset)
	}

	result.ElapsedMS = time.Since(started).Milliseconds()
	result.SyncedAt = time.Now().UTC()

	o.logger.Info("Sync complete",
		"thread_url", canonical,
		"thread_uuid", result.ThreadUUID,
		"first_sync", firstSync,
		"dry_run", opts.DryRun,
		"fetched_posts", result.FetchedPosts,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"missing_in_fetch", result.MissingInFetch,
		"elapsed_ms", result.ElapsedMS,
	)
	return result, nil
}

// acquire marks the thread in-flight, rejecting overlap for the same thread.
func (o *Orchestrator) acquire(canonical string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[canonical]; busy {
		return fmt.Errorf("%w: %s", domain.ErrSyncInProgress, canonical)
	}
	o.inFlight[canonical] = struct{}{}
	return nil
}

func (o *Orchestrator) release(canonical string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, canonical)
}

// loadStored resolves the thread row and its posts. A thread never synced
// before comes back nil with no error.
func (o *Orchestrator) loadStored(ctx context.Context, canonical string) (*domain.Thread, []domain.Post, error) {
	existing, err := o.store.GetThreadByURL(ctx, canonical)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	stored, err := o.store.ListPosts(ctx, existing.UUID)
	if err != nil {
		return nil, nil, err
	}
	return existing, stored, nil
}

// fetch retrieves the thread within the fetch timeout, resuming from the
// newest stored post when it is addressable at the source. Reaction detail
// runs always force a full walk.
func (o *Orchestrator) fetch(
	ctx context.Context,
	canonical string,
	stored []domain.Post,
	opts Options,
) (*domain.RawThreadSnapshot, error) {
	fctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	fopts := fetcher.Options{IncludeReactionDetail: opts.IncludeReactionDetail}
	if !opts.IncludeReactionDetail {
		if since := lastSourcePostID(stored); since != "" {
			return o.fetcher.FetchThreadSince(fctx, canonical, since, fopts)
		}
	}
	return o.fetcher.FetchThread(fctx, canonical, fopts)
}

// lastSourcePostID returns the identity of the newest stored post when it
// came from the source; minted identities are not addressable in a URL.
func lastSourcePostID(stored []domain.Post) string {
	if len(stored) == 0 {
		return ""
	}
	last := stored[len(stored)-1]
	if identity.IsMinted(last.PostID) {
		return ""
	}
	return last.PostID
}

// index mirrors written posts into the search index, best effort.
func (o *Orchestrator) index(ctx context.Context, thread *domain.Thread, cs *domain.Changeset) {
	if o.indexer == nil {
		return
	}

	posts := make([]domain.Post, 0, len(cs.InsertPosts)+len(cs.UpdatePosts))
	posts = append(posts, cs.InsertPosts...)
	posts = append(posts, cs.UpdatePosts...)
	if len(posts) == 0 {
		return
	}

	if err := o.indexer.IndexPosts(ctx, thread, posts); err != nil {
		o.logger.Warn("Search indexing failed",
			"thread_uuid", thread.UUID,
			"posts", len(posts),
			"error", err,
		)
	}
}
