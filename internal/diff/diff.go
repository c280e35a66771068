// Package diff computes the changeset between a freshly fetched snapshot
// and the stored state of a thread. The engine is pure: it never touches
// storage and never deletes. Stored posts absent from a fetch are counted
// as missing, not removed, so a partial or truncated fetch can never
// destroy data.
package diff

import (
	"fmt"
	"slices"

	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/identity"
)

// Compute builds the changeset for one sync cycle. fresh and resolutions
// are index-aligned resolver output; stored is the thread's current
// persisted state. Change detection is by content fingerprint (text,
// reaction count, media lists): a reaction-count-only delta still counts as
// an update. Pairings graded uncertain are reported and treated as
// unchanged rather than written; thread aggregates are recomputed from the
// union of stored and fresh state, never incrementally accumulated.
func Compute(fresh []domain.Post, resolutions []identity.Resolution, stored []domain.Post) (*domain.Changeset, error) {
	if len(fresh) != len(resolutions) {
		return nil, fmt.Errorf("diff: %d posts with %d resolutions", len(fresh), len(resolutions))
	}

	storedByID := make(map[string]*domain.Post, len(stored))
	for i := range stored {
		storedByID[stored[i].PostID] = &stored[i]
	}

	cs := &domain.Changeset{}
	seen := make(map[string]struct{}, len(fresh))

	for i := range fresh {
		r := resolutions[i]
		if r.Duplicate {
			continue
		}

		post := fresh[i]
		post.PostID = r.Identity
		seen[r.Identity] = struct{}{}

		counterpart, ok := storedByID[r.Identity]
		if r.IsNew || !ok {
			cs.Inserted = append(cs.Inserted, r.Identity)
			cs.InsertPosts = append(cs.InsertPosts, post)

			continue
		}

		if post.Fingerprint() == counterpart.Fingerprint() {
			cs.Unchanged++

			continue
		}

		if r.Confidence == identity.ConfidenceUncertain {
			// The pairing is too weak to justify a write; report it and
			// leave the stored row alone.
			cs.Unchanged++
			cs.Uncertain++

			continue
		}

		cs.Updated = append(cs.Updated, changeFor(&post, counterpart))
		cs.UpdatePosts = append(cs.UpdatePosts, post)
	}

	for i := range stored {
		if _, present := seen[stored[i].PostID]; !present {
			cs.MissingInFetch++
		}
	}

	cs.Aggregates = computeAggregates(union(stored, fresh, resolutions))

	return cs, nil
}

// changeFor records what differs between a fresh post and its stored
// counterpart. Reasons mirror the fingerprint components; author and floor
// drift is tagged as metadata when it rides along with a real change.
func changeFor(fresh, stored *domain.Post) domain.PostChange {
	change := domain.PostChange{
		PostID:       fresh.PostID,
		OldReactions: stored.ReactionCount,
		NewReactions: fresh.ReactionCount,
	}

	if fresh.ContentText != stored.ContentText {
		change.Reasons = append(change.Reasons, domain.ChangeReasonContent)
	}

	if !slices.Equal(fresh.ImageURLs, stored.ImageURLs) ||
		!slices.Equal(fresh.ExternalLinks, stored.ExternalLinks) ||
		!slices.Equal(fresh.EmbedURLs, stored.EmbedURLs) {
		change.Reasons = append(change.Reasons, domain.ChangeReasonMedia)
	}

	if fresh.ReactionCount != stored.ReactionCount {
		change.Reasons = append(change.Reasons, domain.ChangeReasonReactions)
	}

	if fresh.AuthorName != stored.AuthorName || fresh.Floor != stored.Floor {
		change.Reasons = append(change.Reasons, domain.ChangeReasonMetadata)
	}

	return change
}

// union overlays confident fresh state onto stored state by identity.
// Stored-only posts stay; uncertain pairings keep the stored row.
func union(stored, fresh []domain.Post, resolutions []identity.Resolution) []domain.Post {
	byID := make(map[string]domain.Post, len(stored)+len(fresh))
	order := make([]string, 0, len(stored)+len(fresh))

	for i := range stored {
		byID[stored[i].PostID] = stored[i]
		order = append(order, stored[i].PostID)
	}

	for i := range fresh {
		r := resolutions[i]
		if r.Duplicate || (r.Confidence == identity.ConfidenceUncertain && !r.IsNew) {
			continue
		}

		post := fresh[i]
		post.PostID = r.Identity

		if _, exists := byID[r.Identity]; !exists {
			order = append(order, r.Identity)
		}

		byID[r.Identity] = post
	}

	posts := make([]domain.Post, 0, len(order))
	for _, id := range order {
		posts = append(posts, byID[id])
	}

	return posts
}

// computeAggregates derives the thread counters from a full post set.
// Distinct authors are keyed by author ID when the source provides one,
// otherwise by display name; posts with neither are not counted as authors.
func computeAggregates(posts []domain.Post) domain.ThreadAggregates {
	agg := domain.ThreadAggregates{PostCount: len(posts)}

	authors := make(map[string]struct{}, len(posts))

	for i := range posts {
		p := &posts[i]

		key := p.AuthorID
		if key == "" {
			key = p.AuthorName
		}
		if key != "" {
			authors[key] = struct{}{}
		}

		if p.PostedAt > 0 && (agg.FirstPostAt == 0 || p.PostedAt < agg.FirstPostAt) {
			agg.FirstPostAt = p.PostedAt
		}

		if p.PostedAt > agg.LastPostAt {
			agg.LastPostAt = p.PostedAt
		}
	}

	agg.AuthorCount = len(authors)

	return agg
}
