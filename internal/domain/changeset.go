package domain

import "time"

// Change reasons recorded on an updated post.
const (
	ChangeReasonContent   = "content"
	ChangeReasonMedia     = "media"
	ChangeReasonReactions = "reactions"
	ChangeReasonMetadata  = "metadata"
)

// PostChange describes one updated post within a changeset.
type PostChange struct {
	// PostID is the resolved identity of the changed post.
	PostID string `json:"post_id"`
	// Reasons lists what changed: content, media, reactions, metadata.
	Reasons []string `json:"reasons"`
	// OldReactions/NewReactions carry the reaction delta when reactions changed.
	OldReactions int `json:"old_reactions"`
	NewReactions int `json:"new_reactions"`
}

// ReactionOnly reports whether the reaction count is the only thing that
// changed on this post.
func (c PostChange) ReactionOnly() bool {
	return len(c.Reasons) == 1 && c.Reasons[0] == ChangeReasonReactions
}

// Changeset is the computed difference between a fresh snapshot and the
// stored state of one thread. It is ephemeral: consumed by the orchestrator,
// kept transiently on the watcher's last result and API responses, never
// persisted as an entity.
type Changeset struct {
	// Inserted lists the identities of newly observed posts.
	Inserted []string `json:"inserted"`
	// Updated lists changed posts with their change reasons.
	Updated []PostChange `json:"updated"`
	// Unchanged counts fresh posts identical to their stored counterparts.
	Unchanged int `json:"unchanged"`
	// MissingInFetch counts stored posts absent from the fresh snapshot.
	// They are left untouched; the engine never deletes.
	MissingInFetch int `json:"missing_in_fetch"`
	// Aggregates are the thread counters recomputed from the union of
	// stored and fresh posts.
	Aggregates ThreadAggregates `json:"aggregates"`
	// Uncertain counts fresh posts whose pairing confidence was too low to
	// act on; they are treated as unchanged rather than inserted.
	Uncertain int `json:"uncertain,omitempty"`

	// InsertPosts and UpdatePosts carry the full rows the orchestrator
	// writes when persisting. They never travel over the wire.
	InsertPosts []Post `json:"-"`
	UpdatePosts []Post `json:"-"`
}

// Empty reports whether the changeset carries no writes.
func (c *Changeset) Empty() bool {
	return len(c.Inserted) == 0 && len(c.Updated) == 0
}

// SyncResult is the structured outcome of one sync cycle.
type SyncResult struct {
	// ThreadUUID and ThreadURL identify the synced thread.
	ThreadUUID string `json:"thread_uuid"`
	ThreadURL  string `json:"thread_url"`
	// FirstSync is true when this run created the thread row.
	FirstSync bool `json:"first_sync"`
	// DryRun is true when nothing was written.
	DryRun bool `json:"dry_run,omitempty"`
	// Counts from the changeset.
	Inserted       int `json:"inserted"`
	Updated        int `json:"updated"`
	Unchanged      int `json:"unchanged"`
	MissingInFetch int `json:"missing_in_fetch"`
	// FetchedPosts is the number of posts in the fresh snapshot.
	FetchedPosts int `json:"fetched_posts"`
	// ElapsedMS is the wall-clock duration of the cycle in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`
	// SyncedAt is when the cycle finished.
	SyncedAt time.Time `json:"synced_at"`
	// Changeset carries the full diff detail (dry-run validation, API
	// responses). Post rows inside it are never serialized.
	Changeset *Changeset `json:"changeset,omitempty"`
}
