// Package identity assigns stable post identities across re-fetches. The
// source does not guarantee a post ID on every post, so resolution is
// tiered: a previously seen source-provided ID wins outright, then a unique
// floor number, then a content-hash positional heuristic. The heuristic tier
// is biased toward pairing with stored state over inserting: a mis-detected
// insert accumulates duplicates forever, a mis-detected no-op costs one
// missed update.
package identity

import (
	"strconv"
	"strings"

	"github.com/jonesrussell/threadsync/internal/domain"
)

// Confidence grades how a fresh post was paired with stored state.
type Confidence string

const (
	// ConfidenceExact means a source-provided post ID decided the pairing.
	ConfidenceExact Confidence = "exact"
	// ConfidenceFloor means a unique floor number decided the pairing.
	ConfidenceFloor Confidence = "floor"
	// ConfidenceUncertain means the content-hash positional heuristic
	// decided the pairing; consumers must not trust it for updates.
	ConfidenceUncertain Confidence = "uncertain"
)

const (
	floorIDPrefix = "floor:"
	hashIDPrefix  = "hash:"
	hashIDLength  = 16
)

// Resolution pairs one fresh post (by index) with its stable identity.
type Resolution struct {
	// Identity is the resolved post identity within the thread.
	Identity string
	// IsNew reports that no stored post carries this identity yet.
	IsNew bool
	// Confidence grades the pairing tier that produced this resolution.
	Confidence Confidence
	// Duplicate marks a later occurrence of an identity already resolved
	// at an earlier index in the same snapshot (overlapping pages, double
	// scrape). Consumers skip duplicates.
	Duplicate bool
}

// Resolve assigns each fresh post a stable identity against the thread's
// stored posts. The result is index-aligned with fresh. Stored posts are
// expected in listing order (floor, then timestamp); fresh posts in fetch
// order. Neither slice is mutated.
//
// An identity held by a stored post is never reassigned: a pairing is only
// made when the evidence says the fresh post is that stored post.
func Resolve(fresh, stored []domain.Post) []Resolution {
	storedByID := make(map[string]*domain.Post, len(stored))
	for i := range stored {
		storedByID[stored[i].PostID] = &stored[i]
	}

	storedByFloor := uniqueFloors(stored)
	freshDupFloors := duplicatedFloors(fresh)

	resolutions := make([]Resolution, len(fresh))
	seen := make(map[string]struct{}, len(fresh))

	for i := range fresh {
		r := resolveOne(&fresh[i], i, stored, storedByID, storedByFloor, freshDupFloors)

		if _, dup := seen[r.Identity]; dup {
			r.Duplicate = true
			r.IsNew = false
		} else {
			seen[r.Identity] = struct{}{}
		}

		resolutions[i] = r
	}

	return resolutions
}

func resolveOne(
	fresh *domain.Post,
	position int,
	stored []domain.Post,
	storedByID map[string]*domain.Post,
	storedByFloor map[int]*domain.Post,
	freshDupFloors map[int]bool,
) Resolution {
	// Tier 1: source-provided ID, previously seen.
	if fresh.SourceID != "" {
		if _, ok := storedByID[fresh.SourceID]; ok {
			return Resolution{Identity: fresh.SourceID, Confidence: ConfidenceExact}
		}
	}

	// Tier 2: unique floor number present in both snapshots.
	floorUsable := fresh.Floor > 0 && !freshDupFloors[fresh.Floor]
	if floorUsable {
		if counterpart, ok := storedByFloor[fresh.Floor]; ok {
			if floorPairingSafe(fresh, counterpart) {
				return Resolution{Identity: counterpart.PostID, Confidence: ConfidenceFloor}
			}
		}
	}

	// New post with a trustworthy source identity.
	if fresh.SourceID != "" {
		return Resolution{Identity: fresh.SourceID, IsNew: true, Confidence: ConfidenceExact}
	}

	// New post at a floor nothing stored occupies.
	if floorUsable {
		return Resolution{Identity: floorIDPrefix + strconv.Itoa(fresh.Floor), IsNew: true, Confidence: ConfidenceFloor}
	}

	// Tier 3: content-hash positional heuristic.
	if position < len(stored) && stored[position].IdentityHash() == fresh.IdentityHash() {
		return Resolution{Identity: stored[position].PostID, Confidence: ConfidenceUncertain}
	}

	minted := mintContentID(fresh)
	if _, exists := storedByID[minted]; exists {
		// Identical author+timestamp+content already stored under this
		// minted identity; pairing beats accumulating a duplicate row.
		return Resolution{Identity: minted, Confidence: ConfidenceUncertain}
	}

	return Resolution{Identity: minted, IsNew: true, Confidence: ConfidenceUncertain}
}

// floorPairingSafe rejects a floor pairing that would hand one source post's
// identity to a different source post. Floors shift when the source deletes
// an earlier post, so two distinct source IDs can pass through the same
// floor number across fetches.
func floorPairingSafe(fresh, counterpart *domain.Post) bool {
	if fresh.SourceID == "" {
		return true
	}

	if IsMinted(counterpart.PostID) {
		return true
	}

	return counterpart.PostID == fresh.SourceID
}

// IsMinted reports whether an identity was minted by this resolver rather
// than provided by the source.
func IsMinted(id string) bool {
	return strings.HasPrefix(id, floorIDPrefix) || strings.HasPrefix(id, hashIDPrefix)
}

func mintContentID(p *domain.Post) string {
	return hashIDPrefix + p.IdentityHash()[:hashIDLength]
}

// uniqueFloors indexes stored posts by floor, excluding floor values that
// appear more than once; a duplicated floor is unreliable as identity.
func uniqueFloors(posts []domain.Post) map[int]*domain.Post {
	counts := make(map[int]int, len(posts))
	for i := range posts {
		if posts[i].Floor > 0 {
			counts[posts[i].Floor]++
		}
	}

	byFloor := make(map[int]*domain.Post, len(posts))
	for i := range posts {
		if f := posts[i].Floor; f > 0 && counts[f] == 1 {
			byFloor[f] = &posts[i]
		}
	}

	return byFloor
}

// duplicatedFloors reports floor values appearing more than once.
func duplicatedFloors(posts []domain.Post) map[int]bool {
	counts := make(map[int]int, len(posts))
	for i := range posts {
		if posts[i].Floor > 0 {
			counts[posts[i].Floor]++
		}
	}

	dups := make(map[int]bool)
	for floor, n := range counts {
		if n > 1 {
			dups[floor] = true
		}
	}

	return dups
}
