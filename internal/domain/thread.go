// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// Thread represents one forum thread tracked by the sync engine.
// Identity is the canonical thread URL plus an internally minted UUID;
// the URL→UUID mapping never changes once created.
type Thread struct {
	// UUID is the internally minted stable identifier.
	UUID string `json:"uuid" db:"uuid"`
	// URL is the canonical thread URL (pagination and query suffixes stripped).
	URL string `json:"url" db:"url"`
	// Title of the thread as shown at the source.
	Title string `json:"title" db:"title"`
	// Categories the thread belongs to.
	Categories StringList `json:"categories" db:"categories"`
	// Tags attached to the thread.
	Tags StringList `json:"tags" db:"tags"`
	// AvatarURL is the thread starter's avatar or thread image.
	AvatarURL string `json:"avatar_url,omitempty" db:"avatar_url"`
	// Description or opening summary.
	Description string `json:"description,omitempty" db:"description"`
	// PostCount is the number of posts currently stored.
	PostCount int `json:"post_count" db:"post_count"`
	// AuthorCount is the number of distinct authors across stored posts.
	AuthorCount int `json:"author_count" db:"author_count"`
	// FirstPostAt is the earliest stored post timestamp (epoch milliseconds, 0 = unknown).
	FirstPostAt int64 `json:"first_post_at" db:"first_post_at"`
	// LastPostAt is the latest stored post timestamp (epoch milliseconds, 0 = unknown).
	LastPostAt int64 `json:"last_post_at" db:"last_post_at"`
	// CreatedAt is when the thread row was first created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// UpdatedAt is when the thread row was last touched by a sync.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ThreadAggregates holds the thread-level counters recomputed on every sync
// from the union of stored and freshly fetched posts.
type ThreadAggregates struct {
	PostCount   int   `json:"post_count"`
	AuthorCount int   `json:"author_count"`
	FirstPostAt int64 `json:"first_post_at"`
	LastPostAt  int64 `json:"last_post_at"`
}
