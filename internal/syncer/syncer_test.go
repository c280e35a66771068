package syncer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/threadsync/internal/config"
	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/fetcher"
	"github.com/jonesrussell/threadsync/internal/logger"
	"github.com/jonesrussell/threadsync/internal/store"
	"github.com/jonesrussell/threadsync/internal/syncer"
)

const testThreadURL = "https://forum.example.com/threads/big-topic.42"

// fakeFetcher returns canned snapshots and can block mid-fetch to exercise
// the orchestrator's concurrency rules.
type fakeFetcher struct {
	mu         sync.Mutex
	snapshot   *domain.RawThreadSnapshot
	sinceSnap  *domain.RawThreadSnapshot
	err        error
	fullCalls  int
	sinceCalls []string

	started chan struct{} // closed when the first fetch begins, when set
	release chan struct{} // fetches block until closed, when set
	once    sync.Once
}

func (f *fakeFetcher) FetchThread(
	ctx context.Context,
	_ string,
	_ fetcher.Options,
) (*domain.RawThreadSnapshot, error) {
	f.mu.Lock()
	f.fullCalls++
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return cloneSnapshot(f.snapshot), nil
}

func (f *fakeFetcher) FetchThreadSince(
	ctx context.Context,
	_, sincePostID string,
	_ fetcher.Options,
) (*domain.RawThreadSnapshot, error) {
	f.mu.Lock()
	f.sinceCalls = append(f.sinceCalls, sincePostID)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.sinceSnap != nil {
		return cloneSnapshot(f.sinceSnap), nil
	}
	return cloneSnapshot(f.snapshot), nil
}

func (f *fakeFetcher) wait(ctx context.Context) error {
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release == nil {
		return nil
	}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.ErrFetchFailed, ctx.Err())
	}
}

func (f *fakeFetcher) counts() (full int, since []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullCalls, append([]string(nil), f.sinceCalls...)
}

func cloneSnapshot(s *domain.RawThreadSnapshot) *domain.RawThreadSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Posts = append([]domain.RawPost(nil), s.Posts...)
	return &c
}

// fakeStore keeps thread state in memory and materializes applied
// changesets the way the real store's upserts do.
type fakeStore struct {
	mu       sync.Mutex
	thread   *domain.Thread
	posts    []domain.Post
	applied  []*domain.Changeset
	applyErr error
	getErr   error
}

func (s *fakeStore) GetThreadByURL(_ context.Context, url string) (*domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.thread == nil || s.thread.URL != url {
		return nil, fmt.Errorf("thread %s: %w", url, domain.ErrNotFound)
	}
	t := *s.thread
	return &t, nil
}

func (s *fakeStore) ListPosts(_ context.Context, _ string) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Post(nil), s.posts...), nil
}

func (s *fakeStore) ApplyChangeset(_ context.Context, thread *domain.Thread, cs *domain.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applyErr != nil {
		return s.applyErr
	}
	if thread.UUID == "" {
		thread.UUID = "uuid-1"
	}

	byID := map[string]int{}
	for i, p := range s.posts {
		byID[p.PostID] = i
	}
	for _, p := range append(append([]domain.Post{}, cs.InsertPosts...), cs.UpdatePosts...) {
		if i, ok := byID[p.PostID]; ok {
			s.posts[i] = p
		} else {
			s.posts = append(s.posts, p)
			byID[p.PostID] = len(s.posts) - 1
		}
	}

	t := *thread
	s.thread = &t
	s.applied = append(s.applied, cs)
	return nil
}

func (s *fakeStore) appliedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

func (s *fakeStore) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// fakeIndexer records indexing calls.
type fakeIndexer struct {
	mu    sync.Mutex
	calls int
	posts int
	err   error
}

func (f *fakeIndexer) IndexPosts(_ context.Context, _ *domain.Thread, posts []domain.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.posts += len(posts)
	return f.err
}

func rawSnapshot(url string, n int) *domain.RawThreadSnapshot {
	snap := &domain.RawThreadSnapshot{
		URL:   url,
		Title: "Big Topic",
		Posts: make([]domain.RawPost, 0, n),
	}
	for i := 1; i <= n; i++ {
		snap.Posts = append(snap.Posts, domain.RawPost{
			SourceID:    fmt.Sprintf("post-%d", i),
			AuthorName:  "alice",
			AuthorID:    "1",
			Floor:       fmt.Sprintf("#%d", i),
			Timestamp:   "1700000000",
			ContentText: fmt.Sprintf("post body %d", i),
		})
	}
	return snap
}

func newOrchestrator(ff fetcher.Interface, fs store.SyncStore) *syncer.Orchestrator {
	cfg := &config.SyncConfig{MaxConcurrent: 4, FetchTimeout: 5 * time.Second}
	return syncer.New(ff, fs, cfg, logger.NewNoOp())
}

func TestSyncFirstSync(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 3)}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	result, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	require.NoError(t, err)

	assert.True(t, result.FirstSync)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 3, result.FetchedPosts)
	assert.Equal(t, testThreadURL, result.ThreadURL)
	assert.NotEmpty(t, result.ThreadUUID)
	assert.Equal(t, 1, fs.appliedCount())
	assert.Equal(t, 3, fs.postCount())

	full, since := ff.counts()
	assert.Equal(t, 1, full)
	assert.Empty(t, since, "a first sync has no stored post to resume from")
}

func TestSyncRepeatUsesIncrementalFetch(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 3)}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	require.NoError(t, err)

	since := rawSnapshot(testThreadURL, 3)
	since.Posts = since.Posts[2:]
	since.Partial = true
	ff.sinceSnap = since

	result, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	require.NoError(t, err)

	assert.False(t, result.FirstSync)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Unchanged)
	assert.Equal(t, 0, result.MissingInFetch,
		"a partial walk cannot observe absence")

	_, sinceCalls := ff.counts()
	require.Len(t, sinceCalls, 1)
	assert.Equal(t, "post-3", sinceCalls[0])
}

func TestSyncReactionDetailForcesFullFetch(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 3)}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	require.NoError(t, err)

	_, err = o.Sync(context.Background(), testThreadURL, syncer.Options{IncludeReactionDetail: true})
	require.NoError(t, err)

	full, since := ff.counts()
	assert.Equal(t, 2, full)
	assert.Empty(t, since)
}

func TestSyncDryRun(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 3)}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	result, err := o.Sync(context.Background(), testThreadURL, syncer.Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.True(t, result.FirstSync)
	assert.Empty(t, result.ThreadUUID, "a dry run must not mint a thread")
	assert.Equal(t, 3, result.Inserted)
	require.NotNil(t, result.Changeset)
	assert.Len(t, result.Changeset.InsertPosts, 3)
	assert.Equal(t, 0, fs.appliedCount(), "a dry run must not write")
}

func TestSyncCanonicalizesTarget(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 1)}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	result, err := o.Sync(context.Background(), testThreadURL+"/page-3?order=asc#post-9", syncer.Options{})
	require.NoError(t, err)
	assert.Equal(t, testThreadURL, result.ThreadURL)
}

func TestSyncInvalidTarget(t *testing.T) {
	o := newOrchestrator(&fakeFetcher{}, &fakeStore{})

	_, err := o.Sync(context.Background(), "not a url", syncer.Options{})
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
}

func TestSyncFetchFailureAbortsWithoutWrites(t *testing.T) {
	ff := &fakeFetcher{err: fmt.Errorf("%w: connection refused", domain.ErrFetchFailed)}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Equal(t, 0, fs.appliedCount())
}

func TestSyncMalformedSnapshotAbortsWithoutWrites(t *testing.T) {
	bad := rawSnapshot(testThreadURL, 2)
	bad.Title = ""
	ff := &fakeFetcher{snapshot: bad}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
	assert.Equal(t, 0, fs.appliedCount())
}

func TestSyncPersistenceFailure(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 2)}
	fs := &fakeStore{applyErr: fmt.Errorf("%w: write: disk full", domain.ErrPersistenceFailed)}
	o := newOrchestrator(ff, fs)

	_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
}

func TestSyncSameThreadSerialized(t *testing.T) {
	ff := &fakeFetcher{
		snapshot: rawSnapshot(testThreadURL, 2),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
		firstDone <- err
	}()

	select {
	case <-ff.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first sync never reached the fetcher")
	}

	_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(ff.release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, fs.appliedCount())

	// The lock is released once the first run finishes.
	_, err = o.Sync(context.Background(), testThreadURL, syncer.Options{})
	require.NoError(t, err)
}

func TestSyncDifferentThreadsRunConcurrently(t *testing.T) {
	otherURL := "https://forum.example.com/threads/other-topic.7"
	ff := &fakeFetcher{
		snapshot: rawSnapshot(testThreadURL, 1),
		release:  make(chan struct{}),
	}
	fs := &fakeStore{}
	o := newOrchestrator(ff, fs)

	done := make(chan error, 2)
	go func() {
		_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
		done <- err
	}()
	go func() {
		_, err := o.Sync(context.Background(), otherURL, syncer.Options{})
		done <- err
	}()

	assert.Eventually(t, func() bool {
		full, _ := ff.counts()
		return full == 2
	}, 2*time.Second, 5*time.Millisecond, "both threads should fetch concurrently")

	close(ff.release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}

func TestSyncIndexesWrittenPosts(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 3)}
	fs := &fakeStore{}
	idx := &fakeIndexer{}
	o := newOrchestrator(ff, fs).WithIndexer(idx)

	_, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	require.NoError(t, err)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	assert.Equal(t, 1, idx.calls)
	assert.Equal(t, 3, idx.posts)
}

func TestSyncIndexerFailureDoesNotFailSync(t *testing.T) {
	ff := &fakeFetcher{snapshot: rawSnapshot(testThreadURL, 2)}
	fs := &fakeStore{}
	idx := &fakeIndexer{err: errors.New("index unavailable")}
	o := newOrchestrator(ff, fs).WithIndexer(idx)

	result, err := o.Sync(context.Background(), testThreadURL, syncer.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
}
