package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/normalize"
)

func validRaw() *domain.RawThreadSnapshot {
	return &domain.RawThreadSnapshot{
		URL:         "https://forum.example.com/threads/big-topic.42/page-2?order=asc",
		Title:       "  Big Topic  ",
		Description: " First post summary ",
		AvatarURL:   " https://forum.example.com/avatars/1.jpg ",
		Categories:  []string{"News", "News", "Meta"},
		Tags:        []string{"go", "", "go", "sync"},
		Posts: []domain.RawPost{
			{
				SourceID:         "post-100",
				AuthorName:       " alice ",
				AuthorID:         "7",
				AuthorProfileURL: "https://forum.example.com/members/alice.7/",
				Floor:            "#1",
				Timestamp:        "1700000000",
				ContentText:      "  hello world  ",
				ContentHTML:      "<p>hello world</p>",
				ImageURLs:        []string{"https://a/1.png", "https://a/1.png", "https://a/2.png"},
				ExternalLinks:    []string{"https://example.org"},
				ReactionCount:    3,
			},
			{
				SourceID:      "post-101",
				AuthorName:    "bob",
				Floor:         "#1,002",
				Timestamp:     int64(1700000060000),
				ContentText:   "second",
				EmbedURLs:     []string{"https://youtube.com/embed/x"},
				ReactionCount: 0,
			},
		},
		PagesFetched: 2,
	}
}

func TestSnapshot(t *testing.T) {
	thread, posts, err := normalize.Snapshot(validRaw())
	require.NoError(t, err)
	require.NotNil(t, thread)
	require.Len(t, posts, 2)

	// Thread: canonical URL, trimmed fields, deduplicated lists.
	assert.Equal(t, "https://forum.example.com/threads/big-topic.42", thread.URL)
	assert.Equal(t, "Big Topic", thread.Title)
	assert.Equal(t, "First post summary", thread.Description)
	assert.Equal(t, "https://forum.example.com/avatars/1.jpg", thread.AvatarURL)
	assert.Equal(t, domain.StringList{"News", "Meta"}, thread.Categories)
	assert.Equal(t, domain.StringList{"go", "sync"}, thread.Tags)
	assert.Empty(t, thread.UUID, "normalizer must not mint identities")

	// Posts: fetch order preserved, fields coerced.
	first := posts[0]
	assert.Equal(t, "post-100", first.SourceID)
	assert.Equal(t, "alice", first.AuthorName)
	assert.Equal(t, 1, first.Floor)
	assert.Equal(t, int64(1700000000000), first.PostedAt)
	assert.Equal(t, "hello world", first.ContentText)
	assert.Equal(t, domain.StringList{"https://a/1.png", "https://a/2.png"}, first.ImageURLs)
	assert.Empty(t, first.PostID, "normalizer must not mint identities")

	second := posts[1]
	assert.Equal(t, 1002, second.Floor)
	assert.Equal(t, int64(1700000060000), second.PostedAt)
}

func TestSnapshotMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RawThreadSnapshot)
	}{
		{"nil snapshot", nil},
		{"missing url", func(r *domain.RawThreadSnapshot) { r.URL = "" }},
		{"relative url", func(r *domain.RawThreadSnapshot) { r.URL = "/threads/t.1" }},
		{"missing title", func(r *domain.RawThreadSnapshot) { r.Title = "   " }},
		{"unparseable post timestamp", func(r *domain.RawThreadSnapshot) { r.Posts[0].Timestamp = "not a date" }},
		{"eleven digit post timestamp", func(r *domain.RawThreadSnapshot) { r.Posts[0].Timestamp = "17000000000" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw *domain.RawThreadSnapshot
			if tt.mutate != nil {
				raw = validRaw()
				tt.mutate(raw)
			}

			_, _, err := normalize.Snapshot(raw)
			assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
		})
	}
}

func TestSnapshotDefaultsOptionalFields(t *testing.T) {
	raw := &domain.RawThreadSnapshot{
		URL:   "https://forum.example.com/threads/t.1",
		Title: "T",
		Posts: []domain.RawPost{
			{ContentText: "no author, no floor, no timestamp"},
		},
	}

	_, posts, err := normalize.Snapshot(raw)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	// Absent optionals stay explicit zero values; the anonymous sentinel is
	// presentation-level only and must not be stored.
	assert.Empty(t, posts[0].AuthorName)
	assert.Zero(t, posts[0].Floor)
	assert.Zero(t, posts[0].PostedAt)
	assert.Nil(t, posts[0].ImageURLs)
}

func TestParseFloor(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"#1", 1},
		{"#1,234", 1234},
		{"42", 42},
		{" #7 ", 7},
		{"", 0},
		{"#", 0},
		{"first", 0},
		{"#-3", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.ParseFloor(tt.input), "input %q", tt.input)
	}
}
