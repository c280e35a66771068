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

func newTestStore(t *testing.T) (*store.Store, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")

	return store.New(db), mock, func() { mockDB.Close() }
}

func TestStore_CreateThread_MintsUUID(t *testing.T) {
	st, mock, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO threads").
		WithArgs(
			sqlmock.AnyArg(), // minted UUID
			"https://forum.example.com/threads/big-topic.42",
			"Big Topic",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			0, 0, int64(0), int64(0),
		).
		WillReturnRows(
			sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now),
		)

	thread := &domain.Thread{
		URL:   "https://forum.example.com/threads/big-topic.42",
		Title: "Big Topic",
	}

	err := st.CreateThread(ctx, thread)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	if thread.UUID == "" {
		t.Error("expected a minted UUID, got empty string")
	}
	if !thread.CreatedAt.Equal(now) {
		t.Errorf("expected created_at=%v, got %v", now, thread.CreatedAt)
	}

	expectationsMet(t, mock)
}

func TestStore_CreateThread_KeepsCallerUUID(t *testing.T) {
	st, mock, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO threads").
		WithArgs(
			"caller-uuid-1",
			"https://forum.example.com/threads/big-topic.42",
			"Big Topic",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			0, 0, int64(0), int64(0),
		).
		WillReturnRows(
			sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now),
		)

	thread := &domain.Thread{
		UUID:  "caller-uuid-1",
		URL:   "https://forum.example.com/threads/big-topic.42",
		Title: "Big Topic",
	}

	err := st.CreateThread(ctx, thread)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	if thread.UUID != "caller-uuid-1" {
		t.Errorf("expected uuid=caller-uuid-1, got %s", thread.UUID)
	}

	expectationsMet(t, mock)
}

func TestStore_ApplyChangeset_FirstSync(t *testing.T) {
	st, mock, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()

	// A thread without a UUID is created inside the same transaction.
	mock.ExpectQuery("INSERT INTO threads").
		WithArgs(
			sqlmock.AnyArg(),
			"https://forum.example.com/threads/big-topic.42",
			"Big Topic",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			0, 0, int64(0), int64(0),
		).
		WillReturnRows(
			sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now),
		)

	mock.ExpectExec("INSERT INTO posts").
		WithArgs(
			sqlmock.AnyArg(), "post-101", "alice",
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			1, int64(1700000000000), "Opening post.",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			0,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO posts").
		WithArgs(
			sqlmock.AnyArg(), "post-102", "bob",
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			2, int64(1700000600000), "First reply.",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			1,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec("UPDATE threads").
		WithArgs(
			"Big Topic",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			2, 2, int64(1700000000000), int64(1700000600000),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	thread := &domain.Thread{
		URL:   "https://forum.example.com/threads/big-topic.42",
		Title: "Big Topic",
	}
	cs := &domain.Changeset{
		Inserted: []string{"post-101", "post-102"},
		InsertPosts: []domain.Post{
			{PostID: "post-101", AuthorName: "alice", Floor: 1, PostedAt: 1700000000000, ContentText: "Opening post."},
			{PostID: "post-102", AuthorName: "bob", Floor: 2, PostedAt: 1700000600000, ContentText: "First reply.", ReactionCount: 1},
		},
		Aggregates: domain.ThreadAggregates{
			PostCount:   2,
			AuthorCount: 2,
			FirstPostAt: 1700000000000,
			LastPostAt:  1700000600000,
		},
	}

	err := st.ApplyChangeset(ctx, thread, cs)
	if err != nil {
		t.Fatalf("ApplyChangeset() error = %v", err)
	}

	if thread.UUID == "" {
		t.Error("expected a minted UUID after first sync")
	}

	expectationsMet(t, mock)
}

func TestStore_ApplyChangeset_UpdatesGoThroughUpsert(t *testing.T) {
	st, mock, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectBegin()

	// No INSERT INTO threads: the thread already has its UUID.
	mock.ExpectExec("INSERT INTO posts").
		WithArgs(
			"thread-uuid-1", "post-102", "bob",
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			2, int64(1700000600000), "First reply, now edited.",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			3,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec("UPDATE threads").
		WithArgs(
			"Big Topic",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			2, 2, int64(1700000000000), int64(1700000600000),
			"thread-uuid-1",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	thread := &domain.Thread{
		UUID:  "thread-uuid-1",
		URL:   "https://forum.example.com/threads/big-topic.42",
		Title: "Big Topic",
	}
	cs := &domain.Changeset{
		Updated: []domain.PostChange{
			{PostID: "post-102", Reasons: []string{domain.ChangeReasonContent, domain.ChangeReasonReactions}, OldReactions: 1, NewReactions: 3},
		},
		Unchanged: 1,
		UpdatePosts: []domain.Post{
			{PostID: "post-102", AuthorName: "bob", Floor: 2, PostedAt: 1700000600000, ContentText: "First reply, now edited.", ReactionCount: 3},
		},
		Aggregates: domain.ThreadAggregates{
			PostCount:   2,
			AuthorCount: 2,
			FirstPostAt: 1700000000000,
			LastPostAt:  1700000600000,
		},
	}

	err := st.ApplyChangeset(ctx, thread, cs)
	if err != nil {
		t.Fatalf("ApplyChangeset() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestStore_ApplyChangeset_EmptyChangesetRefreshesAggregates(t *testing.T) {
	st, mock, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()

	// No post writes: an empty changeset still rewrites stored counters.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE threads").
		WithArgs(
			"Big Topic",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			3, 2, int64(1700000000000), int64(1700001200000),
			"thread-uuid-1",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	thread := &domain.Thread{
		UUID:  "thread-uuid-1",
		URL:   "https://forum.example.com/threads/big-topic.42",
		Title: "Big Topic",
	}
	cs := &domain.Changeset{
		Unchanged: 3,
		Aggregates: domain.ThreadAggregates{
			PostCount:   3,
			AuthorCount: 2,
			FirstPostAt: 1700000000000,
			LastPostAt:  1700001200000,
		},
	}

	err := st.ApplyChangeset(ctx, thread, cs)
	if err != nil {
		t.Fatalf("ApplyChangeset() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestStore_ApplyChangeset_RollsBackOnWriteFailure(t *testing.T) {
	st, mock, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO posts").
		WithArgs(
			"thread-uuid-1", "post-103", "carol",
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			3, int64(1700001200000), "Second reply.",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			0,
		).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	thread := &domain.Thread{
		UUID:  "thread-uuid-1",
		URL:   "https://forum.example.com/threads/big-topic.42",
		Title: "Big Topic",
	}
	cs := &domain.Changeset{
		Inserted: []string{"post-103"},
		InsertPosts: []domain.Post{
			{PostID: "post-103", AuthorName: "carol", Floor: 3, PostedAt: 1700001200000, ContentText: "Second reply."},
		},
		Aggregates: domain.ThreadAggregates{PostCount: 3, AuthorCount: 3},
	}

	err := st.ApplyChangeset(ctx, thread, cs)
	if !errors.Is(err, domain.ErrPersistenceFailed) {
		t.Fatalf("ApplyChangeset() expected ErrPersistenceFailed, got %v", err)
	}

	expectationsMet(t, mock)
}
