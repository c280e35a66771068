package domain

import "errors"

// Error taxonomy shared across the engine. Callers classify failures with
// errors.Is and wrap with fmt.Errorf("...: %w", err) to add context.
var (
	// ErrMalformedSnapshot marks fetched data missing required fields.
	// The run aborts; nothing is retried automatically.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	// ErrFetchFailed marks a network, timeout, or parse failure during
	// fetch. Retried on the next scheduled tick, never within the run.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrPersistenceFailed marks a storage-layer write failure. The run
	// aborts with no partial commit.
	ErrPersistenceFailed = errors.New("persistence failed")
	// ErrSyncInProgress means another sync for the same thread is in
	// flight. Callers back off; not an operator-attention error.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrDuplicateWatcher means the thread is already watched.
	ErrDuplicateWatcher = errors.New("watcher already exists for thread")
	// ErrNotFound means the thread or watcher is unknown.
	ErrNotFound = errors.New("not found")
)
