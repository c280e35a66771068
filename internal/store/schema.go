package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema holds the DDL for the tables this core owns. Statements are
// idempotent so startup can run them unconditionally.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS threads (
		uuid UUID PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		categories JSONB NOT NULL DEFAULT '[]',
		tags JSONB NOT NULL DEFAULT '[]',
		avatar_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		post_count INTEGER NOT NULL DEFAULT 0,
		author_count INTEGER NOT NULL DEFAULT 0,
		first_post_at BIGINT NOT NULL DEFAULT 0,
		last_post_at BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		thread_uuid UUID NOT NULL REFERENCES threads(uuid) ON DELETE CASCADE,
		post_id TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		author_id TEXT NOT NULL DEFAULT '',
		author_profile_url TEXT NOT NULL DEFAULT '',
		floor INTEGER NOT NULL DEFAULT 0,
		posted_at BIGINT NOT NULL DEFAULT 0,
		content_text TEXT NOT NULL DEFAULT '',
		content_html TEXT NOT NULL DEFAULT '',
		image_urls JSONB NOT NULL DEFAULT '[]',
		external_links JSONB NOT NULL DEFAULT '[]',
		embed_urls JSONB NOT NULL DEFAULT '[]',
		reaction_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (thread_uuid, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_thread_floor ON posts (thread_uuid, floor)`,
	`CREATE INDEX IF NOT EXISTS idx_threads_updated_at ON threads (updated_at DESC)`,
}

// EnsureSchema creates the threads and posts tables when absent.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return nil
}
