package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// threadColumns lists columns for SELECT queries on threads.
const threadColumns = `uuid, url, title, categories, tags, avatar_url, description,
	post_count, author_count, first_post_at, last_post_at, created_at, updated_at`

// ThreadRepository handles database operations for threads.
type ThreadRepository struct {
	db *sqlx.DB
}

// NewThreadRepository creates a new thread repository.
func NewThreadRepository(db *sqlx.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create inserts a new thread. A missing UUID is minted here; the URL→UUID
// mapping never changes afterwards. ext may be a transaction so a first
// sync can create the row atomically with its posts.
func (r *ThreadRepository) Create(ctx context.Context, ext sqlx.ExtContext, thread *domain.Thread) error {
	if thread.UUID == "" {
		thread.UUID = uuid.NewString()
	}

	query := `
		INSERT INTO threads (uuid, url, title, categories, tags, avatar_url, description,
		                     post_count, author_count, first_post_at, last_post_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := ext.QueryRowxContext(
		ctx,
		query,
		thread.UUID,
		thread.URL,
		thread.Title,
		thread.Categories,
		thread.Tags,
		thread.AvatarURL,
		thread.Description,
		thread.PostCount,
		thread.AuthorCount,
		thread.FirstPostAt,
		thread.LastPostAt,
	).Scan(&thread.CreatedAt, &thread.UpdatedAt)

	if err != nil {
		return persistence("failed to create thread", err)
	}

	return nil
}

// GetByURL retrieves a thread by its canonical URL.
func (r *ThreadRepository) GetByURL(ctx context.Context, url string) (*domain.Thread, error) {
	var thread domain.Thread

	query := `SELECT ` + threadColumns + ` FROM threads WHERE url = $1`

	err := r.db.GetContext(ctx, &thread, query, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("thread", url)
		}

		return nil, persistence("failed to get thread by url", err)
	}

	return &thread, nil
}

// GetByUUID retrieves a thread by its UUID.
func (r *ThreadRepository) GetByUUID(ctx context.Context, id string) (*domain.Thread, error) {
	var thread domain.Thread

	query := `SELECT ` + threadColumns + ` FROM threads WHERE uuid = $1`

	err := r.db.GetContext(ctx, &thread, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("thread", id)
		}

		return nil, persistence("failed to get thread", err)
	}

	return &thread, nil
}

// List retrieves threads ordered by most recently synced.
func (r *ThreadRepository) List(ctx context.Context, limit, offset int) ([]*domain.Thread, error) {
	var threads []*domain.Thread

	query := `
		SELECT ` + threadColumns + `
		FROM threads
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`

	err := r.db.SelectContext(ctx, &threads, query, limit, offset)
	if err != nil {
		return nil, persistence("failed to list threads", err)
	}

	if threads == nil {
		threads = []*domain.Thread{}
	}

	return threads, nil
}

// Count returns the total number of threads.
func (r *ThreadRepository) Count(ctx context.Context) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM threads`)
	if err != nil {
		return 0, persistence("failed to count threads", err)
	}

	return count, nil
}

// UpdateOnSync refreshes a thread's source metadata and recomputed
// aggregates in one statement. ext may be a transaction.
func (r *ThreadRepository) UpdateOnSync(
	ctx context.Context,
	ext sqlx.ExtContext,
	thread *domain.Thread,
	agg domain.ThreadAggregates,
) error {
	query := `
		UPDATE threads
		SET title = $1, categories = $2, tags = $3, avatar_url = $4, description = $5,
		    post_count = $6, author_count = $7, first_post_at = $8, last_post_at = $9,
		    updated_at = NOW()
		WHERE uuid = $10
	`

	result, err := ext.ExecContext(
		ctx,
		query,
		thread.Title,
		thread.Categories,
		thread.Tags,
		thread.AvatarURL,
		thread.Description,
		agg.PostCount,
		agg.AuthorCount,
		agg.FirstPostAt,
		agg.LastPostAt,
		thread.UUID,
	)
	if err != nil {
		return persistence("failed to update thread", err)
	}

	return execRequireRows(result, notFound("thread", thread.UUID))
}

// UpdateAggregates writes recomputed aggregates without touching metadata.
func (r *ThreadRepository) UpdateAggregates(ctx context.Context, id string, agg domain.ThreadAggregates) error {
	query := `
		UPDATE threads
		SET post_count = $1, author_count = $2, first_post_at = $3, last_post_at = $4,
		    updated_at = NOW()
		WHERE uuid = $5
	`

	result, err := r.db.ExecContext(ctx, query, agg.PostCount, agg.AuthorCount, agg.FirstPostAt, agg.LastPostAt, id)
	if err != nil {
		return persistence("failed to update thread aggregates", err)
	}

	return execRequireRows(result, notFound("thread", id))
}
