package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// Store bundles the repositories and owns the per-sync write transaction.
type Store struct {
	db      *sqlx.DB
	Threads *ThreadRepository
	Posts   *PostRepository
}

// New creates a store over an open database connection.
func New(db *sqlx.DB) *Store {
	return &Store{
		db:      db,
		Threads: NewThreadRepository(db),
		Posts:   NewPostRepository(db),
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetThreadByURL retrieves a thread by its canonical URL.
func (s *Store) GetThreadByURL(ctx context.Context, url string) (*domain.Thread, error) {
	return s.Threads.GetByURL(ctx, url)
}

// CreateThread inserts a new thread row, minting its UUID when absent.
func (s *Store) CreateThread(ctx context.Context, thread *domain.Thread) error {
	return s.Threads.Create(ctx, s.db, thread)
}

// ListPosts retrieves every stored post of a thread in listing order.
func (s *Store) ListPosts(ctx context.Context, threadUUID string) ([]domain.Post, error) {
	return s.Posts.ListByThread(ctx, threadUUID)
}

// GetThread retrieves a thread by its UUID.
func (s *Store) GetThread(ctx context.Context, id string) (*domain.Thread, error) {
	return s.Threads.GetByUUID(ctx, id)
}

// ListThreads retrieves a page of threads, most recently synced first.
func (s *Store) ListThreads(ctx context.Context, limit, offset int) ([]*domain.Thread, error) {
	return s.Threads.List(ctx, limit, offset)
}

// CountThreads returns the number of stored threads.
func (s *Store) CountThreads(ctx context.Context) (int, error) {
	return s.Threads.Count(ctx)
}

// ListThreadPosts retrieves a page of a thread's posts in listing order.
func (s *Store) ListThreadPosts(ctx context.Context, threadUUID string, limit, offset int) ([]domain.Post, error) {
	return s.Posts.ListByThreadPaged(ctx, threadUUID, limit, offset)
}

// CountThreadPosts returns the number of stored posts in a thread.
func (s *Store) CountThreadPosts(ctx context.Context, threadUUID string) (int, error) {
	return s.Posts.CountByThread(ctx, threadUUID)
}

// ApplyChangeset writes one sync cycle atomically: post inserts and updates
// plus the thread's refreshed metadata and recomputed aggregates. A thread
// without a UUID is created in the same transaction, so a failed first sync
// leaves no empty thread row behind. Aggregates are written even for an
// empty changeset so stored counters self-heal. The caller must have
// completed the fetch before this opens a transaction.
func (s *Store) ApplyChangeset(ctx context.Context, thread *domain.Thread, cs *domain.Changeset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistence("failed to begin changeset transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if thread.UUID == "" {
		if createErr := s.Threads.Create(ctx, tx, thread); createErr != nil {
			return createErr
		}
	}

	if len(cs.InsertPosts) > 0 {
		if upsertErr := s.Posts.UpsertPosts(ctx, tx, thread.UUID, cs.InsertPosts); upsertErr != nil {
			return upsertErr
		}
	}

	if len(cs.UpdatePosts) > 0 {
		if upsertErr := s.Posts.UpsertPosts(ctx, tx, thread.UUID, cs.UpdatePosts); upsertErr != nil {
			return upsertErr
		}
	}

	if updateErr := s.Threads.UpdateOnSync(ctx, tx, thread, cs.Aggregates); updateErr != nil {
		return updateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return persistence("failed to commit changeset transaction", commitErr)
	}

	return nil
}
