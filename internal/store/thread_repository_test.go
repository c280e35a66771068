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

// threadColumns lists the columns returned by thread SELECT queries.
var threadColumns = []string{
	"uuid", "url", "title", "categories", "tags", "avatar_url", "description",
	"post_count", "author_count", "first_post_at", "last_post_at",
	"created_at", "updated_at",
}

func newThreadRepo(t *testing.T) (*store.ThreadRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := store.NewThreadRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestThreadRepository_GetByURL(t *testing.T) {
	repo, mock, cleanup := newThreadRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()
	threadURL := "https://forum.example.com/threads/big-topic.42"

	mock.ExpectQuery("FROM threads WHERE url").
		WithArgs(threadURL).
		WillReturnRows(
			sqlmock.NewRows(threadColumns).AddRow(
				"thread-uuid-1", threadURL, "Big Topic",
				[]byte(`["guides","help"]`), nil, "", "",
				3, 2, int64(1700000000000), int64(1700001200000),
				now, now,
			),
		)

	thread, err := repo.GetByURL(ctx, threadURL)
	if err != nil {
		t.Fatalf("GetByURL() error = %v", err)
	}

	if thread.UUID != "thread-uuid-1" {
		t.Errorf("expected uuid=thread-uuid-1, got %s", thread.UUID)
	}
	if thread.Title != "Big Topic" {
		t.Errorf("expected title=Big Topic, got %s", thread.Title)
	}
	if len(thread.Categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(thread.Categories))
	}
	if thread.Tags != nil {
		t.Errorf("expected nil tags for NULL column, got %v", thread.Tags)
	}
	if thread.PostCount != 3 {
		t.Errorf("expected post_count=3, got %d", thread.PostCount)
	}
	if thread.LastPostAt != 1700001200000 {
		t.Errorf("expected last_post_at=1700001200000, got %d", thread.LastPostAt)
	}

	expectationsMet(t, mock)
}

func TestThreadRepository_GetByURL_NotFound(t *testing.T) {
	repo, mock, cleanup := newThreadRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("FROM threads WHERE url").
		WithArgs("https://forum.example.com/threads/unknown.1").
		WillReturnRows(sqlmock.NewRows(threadColumns))

	_, err := repo.GetByURL(ctx, "https://forum.example.com/threads/unknown.1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByURL() expected ErrNotFound, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestThreadRepository_List(t *testing.T) {
	repo, mock, cleanup := newThreadRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("FROM threads\\s+ORDER BY updated_at DESC").
		WithArgs(50, 0).
		WillReturnRows(
			sqlmock.NewRows(threadColumns).
				AddRow("thread-uuid-2", "https://forum.example.com/threads/fresh.7", "Fresh",
					[]byte(`[]`), []byte(`[]`), "", "",
					1, 1, int64(1700002000000), int64(1700002000000), now, now).
				AddRow("thread-uuid-1", "https://forum.example.com/threads/stale.3", "Stale",
					[]byte(`[]`), []byte(`[]`), "", "",
					5, 2, int64(1690000000000), int64(1695000000000), now.Add(-time.Hour), now.Add(-time.Hour)),
		)

	threads, err := repo.List(ctx, 50, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}

	// Most recently synced first
	if threads[0].UUID != "thread-uuid-2" {
		t.Errorf("expected first thread uuid=thread-uuid-2, got %s", threads[0].UUID)
	}
	if threads[1].UUID != "thread-uuid-1" {
		t.Errorf("expected second thread uuid=thread-uuid-1, got %s", threads[1].UUID)
	}

	expectationsMet(t, mock)
}

func TestThreadRepository_List_Empty(t *testing.T) {
	repo, mock, cleanup := newThreadRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("FROM threads\\s+ORDER BY updated_at DESC").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(threadColumns))

	threads, err := repo.List(ctx, 50, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if threads == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(threads) != 0 {
		t.Errorf("expected 0 threads, got %d", len(threads))
	}

	expectationsMet(t, mock)
}

func TestThreadRepository_Count(t *testing.T) {
	repo, mock, cleanup := newThreadRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM threads").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}

	if count != 7 {
		t.Errorf("expected count=7, got %d", count)
	}

	expectationsMet(t, mock)
}

func TestThreadRepository_UpdateAggregates(t *testing.T) {
	repo, mock, cleanup := newThreadRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("UPDATE threads").
		WithArgs(5, 3, int64(1700000000000), int64(1700009000000), "thread-uuid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateAggregates(ctx, "thread-uuid-1", domain.ThreadAggregates{
		PostCount:   5,
		AuthorCount: 3,
		FirstPostAt: 1700000000000,
		LastPostAt:  1700009000000,
	})
	if err != nil {
		t.Fatalf("UpdateAggregates() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestThreadRepository_UpdateAggregates_NotFound(t *testing.T) {
	repo, mock, cleanup := newThreadRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("UPDATE threads").
		WithArgs(0, 0, int64(0), int64(0), "nonexistent-uuid").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAggregates(ctx, "nonexistent-uuid", domain.ThreadAggregates{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateAggregates() expected ErrNotFound, got %v", err)
	}

	expectationsMet(t, mock)
}
