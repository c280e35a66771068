package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Post represents one message within a thread. Identity within a thread is
// the resolved PostID: the source-assigned post ID when the source provides
// one, otherwise an identity minted by the identity resolver. Once assigned,
// a post's identity never changes.
type Post struct {
	// ThreadUUID links the post to its thread.
	ThreadUUID string `json:"thread_uuid" db:"thread_uuid"`
	// PostID is the resolved stable identity within the thread.
	PostID string `json:"post_id" db:"post_id"`
	// SourceID is the raw source-assigned post ID, when present. It feeds
	// identity resolution and is not persisted separately from PostID.
	SourceID string `json:"source_id,omitempty" db:"-"`
	// AuthorName as displayed at the source.
	AuthorName string `json:"author_name" db:"author_name"`
	// AuthorID is the source's numeric or string user ID, when present.
	AuthorID string `json:"author_id,omitempty" db:"author_id"`
	// AuthorProfileURL points at the author's profile page.
	AuthorProfileURL string `json:"author_profile_url,omitempty" db:"author_profile_url"`
	// Floor is the 1-based sequential position within the thread (0 = unknown).
	Floor int `json:"floor" db:"floor"`
	// PostedAt is the post timestamp in epoch milliseconds UTC.
	PostedAt int64 `json:"posted_at" db:"posted_at"`
	// ContentText is the plain-text content.
	ContentText string `json:"content_text" db:"content_text"`
	// ContentHTML is the rendered content as fetched.
	ContentHTML string `json:"content_html,omitempty" db:"content_html"`
	// ImageURLs lists embedded image URLs, first-seen order, deduplicated.
	ImageURLs StringList `json:"image_urls" db:"image_urls"`
	// ExternalLinks lists outbound link URLs, first-seen order, deduplicated.
	ExternalLinks StringList `json:"external_links" db:"external_links"`
	// EmbedURLs lists embedded-frame URLs, first-seen order, deduplicated.
	EmbedURLs StringList `json:"embed_urls" db:"embed_urls"`
	// ReactionCount is the total reaction count at fetch time.
	ReactionCount int `json:"reaction_count" db:"reaction_count"`
	// CreatedAt is when the post row was first stored.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// UpdatedAt is when the post row was last modified by a sync.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// listSeparator keeps hashed list elements from colliding across fields.
const listSeparator = "\x1f"

// Fingerprint returns the change-detection hash: text content, reaction
// count, and the three URL lists. Two posts with equal fingerprints are
// treated as unchanged by the diff engine; a reaction-count-only delta
// yields a different fingerprint on purpose.
func (p *Post) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s%s%d%s", p.ContentText, listSeparator, p.ReactionCount, listSeparator)
	h.Write([]byte(strings.Join(p.ImageURLs, listSeparator)))
	h.Write([]byte(listSeparator))
	h.Write([]byte(strings.Join(p.ExternalLinks, listSeparator)))
	h.Write([]byte(listSeparator))
	h.Write([]byte(strings.Join(p.EmbedURLs, listSeparator)))
	return hex.EncodeToString(h.Sum(nil))
}

// IdentityHash returns the positional-matching hash used by the identity
// resolver when neither a source ID nor a usable floor exists: author,
// timestamp and text content. Reactions are deliberately excluded so a
// reaction delta does not break positional matching.
func (p *Post) IdentityHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s%s%s%s%d%s%s",
		p.AuthorName, listSeparator,
		p.AuthorID, listSeparator,
		p.PostedAt, listSeparator,
		p.ContentText,
	)
	return hex.EncodeToString(h.Sum(nil))
}
