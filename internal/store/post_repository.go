package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// postColumns lists columns for SELECT queries on posts.
const postColumns = `thread_uuid, post_id, author_name, author_id, author_profile_url,
	floor, posted_at, content_text, content_html, image_urls, external_links,
	embed_urls, reaction_count, created_at, updated_at`

// postListOrder is the canonical listing order consumed by the identity
// resolver: floor, then timestamp, then identity for a total order.
const postListOrder = `ORDER BY floor ASC, posted_at ASC, post_id ASC`

// PostRepository handles database operations for posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// ListByThread retrieves every stored post of a thread in listing order.
func (r *PostRepository) ListByThread(ctx context.Context, threadUUID string) ([]domain.Post, error) {
	var posts []domain.Post

	query := `SELECT ` + postColumns + ` FROM posts WHERE thread_uuid = $1 ` + postListOrder

	err := r.db.SelectContext(ctx, &posts, query, threadUUID)
	if err != nil {
		return nil, persistence("failed to list posts", err)
	}

	if posts == nil {
		posts = []domain.Post{}
	}

	return posts, nil
}

// ListByThreadPaged retrieves one page of a thread's posts in listing order.
func (r *PostRepository) ListByThreadPaged(ctx context.Context, threadUUID string, limit, offset int) ([]domain.Post, error) {
	var posts []domain.Post

	query := `SELECT ` + postColumns + ` FROM posts WHERE thread_uuid = $1 ` + postListOrder + ` LIMIT $2 OFFSET $3`

	err := r.db.SelectContext(ctx, &posts, query, threadUUID, limit, offset)
	if err != nil {
		return nil, persistence("failed to list posts", err)
	}

	if posts == nil {
		posts = []domain.Post{}
	}

	return posts, nil
}

// CountByThread returns the number of stored posts in a thread.
func (r *PostRepository) CountByThread(ctx context.Context, threadUUID string) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts WHERE thread_uuid = $1`, threadUUID)
	if err != nil {
		return 0, persistence("failed to count posts", err)
	}

	return count, nil
}

// UpsertPosts writes post rows keyed by (thread_uuid, post_id). Existing
// rows are overwritten with the fresh state; created_at is preserved. ext
// may be a transaction so one sync cycle's writes commit atomically.
func (r *PostRepository) UpsertPosts(ctx context.Context, ext sqlx.ExtContext, threadUUID string, posts []domain.Post) error {
	query := `
		INSERT INTO posts (thread_uuid, post_id, author_name, author_id, author_profile_url,
		                   floor, posted_at, content_text, content_html, image_urls,
		                   external_links, embed_urls, reaction_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (thread_uuid, post_id) DO UPDATE SET
			author_name = EXCLUDED.author_name,
			author_id = EXCLUDED.author_id,
			author_profile_url = EXCLUDED.author_profile_url,
			floor = EXCLUDED.floor,
			posted_at = EXCLUDED.posted_at,
			content_text = EXCLUDED.content_text,
			content_html = EXCLUDED.content_html,
			image_urls = EXCLUDED.image_urls,
			external_links = EXCLUDED.external_links,
			embed_urls = EXCLUDED.embed_urls,
			reaction_count = EXCLUDED.reaction_count,
			updated_at = NOW()
	`

	for i := range posts {
		p := &posts[i]

		_, err := ext.ExecContext(
			ctx,
			query,
			threadUUID,
			p.PostID,
			p.AuthorName,
			p.AuthorID,
			p.AuthorProfileURL,
			p.Floor,
			p.PostedAt,
			p.ContentText,
			p.ContentHTML,
			p.ImageURLs,
			p.ExternalLinks,
			p.EmbedURLs,
			p.ReactionCount,
		)
		if err != nil {
			return persistence("failed to upsert post "+p.PostID, err)
		}
	}

	return nil
}
