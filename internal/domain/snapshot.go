package domain

// RawThreadSnapshot is the loosely-typed output of one fetch: thread
// metadata plus the ordered raw post records exactly as scraped. Nothing in
// it is validated or coerced; the normalizer is the only consumer and
// nothing downstream of the normalizer sees raw values.
type RawThreadSnapshot struct {
	// URL the snapshot was fetched from (may carry page suffixes).
	URL string `json:"url"`
	// Title of the thread.
	Title string `json:"title"`
	// Description or opening summary, when the source exposes one.
	Description string `json:"description,omitempty"`
	// AvatarURL of the thread starter.
	AvatarURL string `json:"avatar_url,omitempty"`
	// Categories as labeled at the source.
	Categories []string `json:"categories,omitempty"`
	// Tags as labeled at the source.
	Tags []string `json:"tags,omitempty"`
	// Posts in source display order across all fetched pages.
	Posts []RawPost `json:"posts"`
	// PagesFetched counts the pages walked to build this snapshot.
	PagesFetched int `json:"pages_fetched,omitempty"`
	// Partial marks a snapshot that intentionally starts mid-thread
	// (incremental fetch); earlier stored posts are expected to be absent.
	Partial bool `json:"partial,omitempty"`
}

// RawPost is one scraped post record. Timestamp and Floor stay in their
// source representations; the normalizer owns coercion.
type RawPost struct {
	// SourceID is the source-assigned post ID, when present.
	SourceID string `json:"source_id,omitempty"`
	// AuthorName as displayed.
	AuthorName string `json:"author_name,omitempty"`
	// AuthorID is the source's user ID, when present.
	AuthorID string `json:"author_id,omitempty"`
	// AuthorProfileURL points at the author's profile page.
	AuthorProfileURL string `json:"author_profile_url,omitempty"`
	// Floor as displayed, e.g. "#3" or "1,204" (empty = unknown).
	Floor string `json:"floor,omitempty"`
	// Timestamp in whatever shape the source emitted: a unix-seconds or
	// unix-milliseconds number (or numeric string), or a calendar date string.
	Timestamp any `json:"timestamp,omitempty"`
	// ContentText is the plain-text content.
	ContentText string `json:"content_text"`
	// ContentHTML is the rendered content.
	ContentHTML string `json:"content_html,omitempty"`
	// ImageURLs as scraped, possibly duplicated.
	ImageURLs []string `json:"image_urls,omitempty"`
	// ExternalLinks as scraped, possibly duplicated.
	ExternalLinks []string `json:"external_links,omitempty"`
	// EmbedURLs as scraped, possibly duplicated.
	EmbedURLs []string `json:"embed_urls,omitempty"`
	// ReactionCount at fetch time.
	ReactionCount int `json:"reaction_count"`
}
