package store

import (
	"context"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// SyncStore is the storage surface the sync orchestrator consumes. Thread
// creation is not part of it: ApplyChangeset creates the row inside the
// write transaction when the thread has no UUID yet.
type SyncStore interface {
	GetThreadByURL(ctx context.Context, url string) (*domain.Thread, error)
	ListPosts(ctx context.Context, threadUUID string) ([]domain.Post, error)
	ApplyChangeset(ctx context.Context, thread *domain.Thread, cs *domain.Changeset) error
}
