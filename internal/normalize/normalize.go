package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// Snapshot validates a raw fetch and produces the canonical thread and its
// ordered posts. Identity resolution happens later: posts come back in
// fetch order with no identities assigned and no thread UUID set.
//
// A snapshot without a thread URL or title is rejected with
// ErrMalformedSnapshot, as is any post whose timestamp is present but
// cannot be coerced. An absent timestamp is defaulted to zero rather than
// rejected.
func Snapshot(raw *domain.RawThreadSnapshot) (*domain.Thread, []domain.Post, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("nil snapshot: %w", domain.ErrMalformedSnapshot)
	}

	canonicalURL, err := CanonicalThreadURL(raw.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("thread url %q: %v: %w", raw.URL, err, domain.ErrMalformedSnapshot)
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, nil, fmt.Errorf("thread title missing: %w", domain.ErrMalformedSnapshot)
	}

	thread := &domain.Thread{
		URL:         canonicalURL,
		Title:       title,
		Categories:  domain.StringList(Dedupe(raw.Categories)),
		Tags:        domain.StringList(Dedupe(raw.Tags)),
		AvatarURL:   strings.TrimSpace(raw.AvatarURL),
		Description: strings.TrimSpace(raw.Description),
	}

	posts := make([]domain.Post, 0, len(raw.Posts))

	for i := range raw.Posts {
		post, postErr := normalizePost(&raw.Posts[i])
		if postErr != nil {
			return nil, nil, fmt.Errorf("post %d: %w", i, postErr)
		}

		posts = append(posts, post)
	}

	return thread, posts, nil
}

func normalizePost(raw *domain.RawPost) (domain.Post, error) {
	var postedAt int64

	if raw.Timestamp != nil {
		ms, err := EpochMillis(raw.Timestamp)
		if err != nil {
			return domain.Post{}, fmt.Errorf("%v: %w", err, domain.ErrMalformedSnapshot)
		}

		postedAt = ms
	}

	return domain.Post{
		SourceID:         strings.TrimSpace(raw.SourceID),
		AuthorName:       strings.TrimSpace(raw.AuthorName),
		AuthorID:         strings.TrimSpace(raw.AuthorID),
		AuthorProfileURL: strings.TrimSpace(raw.AuthorProfileURL),
		Floor:            ParseFloor(raw.Floor),
		PostedAt:         postedAt,
		ContentText:      strings.TrimSpace(raw.ContentText),
		ContentHTML:      raw.ContentHTML,
		ImageURLs:        domain.StringList(Dedupe(raw.ImageURLs)),
		ExternalLinks:    domain.StringList(Dedupe(raw.ExternalLinks)),
		EmbedURLs:        domain.StringList(Dedupe(raw.EmbedURLs)),
		ReactionCount:    raw.ReactionCount,
	}, nil
}

// ParseFloor extracts the numeric floor from its display form, e.g. "#3" or
// "#1,234". Returns 0 when no usable number is present; 0 means unknown and
// is skipped as an identity signal.
func ParseFloor(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.ReplaceAll(s, ",", "")

	if s == "" {
		return 0
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}

	return n
}
