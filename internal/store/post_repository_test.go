package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/store"
)

// postColumns lists the columns returned by post SELECT queries.
var postColumns = []string{
	"thread_uuid", "post_id", "author_name", "author_id", "author_profile_url",
	"floor", "posted_at", "content_text", "content_html", "image_urls",
	"external_links", "embed_urls", "reaction_count", "created_at", "updated_at",
}

func newPostRepo(t *testing.T) (*store.PostRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := store.NewPostRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostRepository_ListByThread_ListingOrder(t *testing.T) {
	repo, mock, cleanup := newPostRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	// The ORDER BY clause is part of the contract: stored posts feed
	// positional matching and must arrive floor-first.
	mock.ExpectQuery("FROM posts WHERE thread_uuid = \\$1 ORDER BY floor ASC, posted_at ASC, post_id ASC").
		WithArgs("thread-uuid-1").
		WillReturnRows(
			sqlmock.NewRows(postColumns).
				AddRow("thread-uuid-1", "post-101", "alice", "", "",
					1, int64(1700000000000), "Opening post.", "",
					[]byte(`["https://cdn.example.com/a.png"]`), []byte(`[]`), []byte(`[]`),
					0, now, now).
				AddRow("thread-uuid-1", "post-102", "bob", "", "",
					2, int64(1700000600000), "First reply.", "",
					[]byte(`[]`), []byte(`[]`), []byte(`[]`),
					3, now, now),
		)

	posts, err := repo.ListByThread(ctx, "thread-uuid-1")
	if err != nil {
		t.Fatalf("ListByThread() error = %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].PostID != "post-101" {
		t.Errorf("expected first post_id=post-101, got %s", posts[0].PostID)
	}
	if len(posts[0].ImageURLs) != 1 {
		t.Errorf("expected 1 image URL, got %d", len(posts[0].ImageURLs))
	}
	if posts[1].ReactionCount != 3 {
		t.Errorf("expected reaction_count=3, got %d", posts[1].ReactionCount)
	}

	expectationsMet(t, mock)
}

func TestPostRepository_ListByThread_Empty(t *testing.T) {
	repo, mock, cleanup := newPostRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("FROM posts WHERE thread_uuid").
		WithArgs("thread-uuid-1").
		WillReturnRows(sqlmock.NewRows(postColumns))

	posts, err := repo.ListByThread(ctx, "thread-uuid-1")
	if err != nil {
		t.Fatalf("ListByThread() error = %v", err)
	}

	if posts == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(posts) != 0 {
		t.Errorf("expected 0 posts, got %d", len(posts))
	}

	expectationsMet(t, mock)
}

func TestPostRepository_ListByThread_QueryError(t *testing.T) {
	repo, mock, cleanup := newPostRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("FROM posts WHERE thread_uuid").
		WithArgs("thread-uuid-1").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.ListByThread(ctx, "thread-uuid-1")
	if !errors.Is(err, domain.ErrPersistenceFailed) {
		t.Fatalf("ListByThread() expected ErrPersistenceFailed, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestPostRepository_ListByThreadPaged(t *testing.T) {
	repo, mock, cleanup := newPostRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("ORDER BY floor ASC, posted_at ASC, post_id ASC LIMIT \\$2 OFFSET \\$3").
		WithArgs("thread-uuid-1", 10, 20).
		WillReturnRows(
			sqlmock.NewRows(postColumns).
				AddRow("thread-uuid-1", "post-121", "carol", "", "",
					21, int64(1700012000000), "Page three opener.", "",
					[]byte(`[]`), []byte(`[]`), []byte(`[]`),
					0, now, now),
		)

	posts, err := repo.ListByThreadPaged(ctx, "thread-uuid-1", 10, 20)
	if err != nil {
		t.Fatalf("ListByThreadPaged() error = %v", err)
	}

	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Floor != 21 {
		t.Errorf("expected floor=21, got %d", posts[0].Floor)
	}

	expectationsMet(t, mock)
}

func TestPostRepository_CountByThread(t *testing.T) {
	repo, mock, cleanup := newPostRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM posts WHERE thread_uuid").
		WithArgs("thread-uuid-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountByThread(ctx, "thread-uuid-1")
	if err != nil {
		t.Fatalf("CountByThread() error = %v", err)
	}

	if count != 4 {
		t.Errorf("expected count=4, got %d", count)
	}

	expectationsMet(t, mock)
}
