// Package integration_test provides integration tests for ThreadSync.
// These tests verify component interactions and end-to-end workflows.
package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/threadsync/internal/config"
	"github.com/jonesrussell/threadsync/internal/fetcher"
	"github.com/jonesrussell/threadsync/internal/logger"
	"github.com/jonesrussell/threadsync/internal/store"
	"github.com/jonesrussell/threadsync/internal/syncer"
	"github.com/jonesrussell/threadsync/tests/helpers"
)

const threadPath = "/threads/big-topic.42"

func TestIntegration_SyncPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := helpers.StartPostgres(ctx)
	require.NoError(t, err, "failed to start PostgreSQL container")
	defer func() {
		_ = pgContainer.Stop(ctx)
	}()

	db, err := store.NewPostgresConnection(pgContainer.DatabaseConfig())
	require.NoError(t, err, "failed to connect to database")
	defer db.Close()

	require.NoError(t, store.EnsureSchema(ctx, db), "failed to ensure schema")
	st := store.New(db)

	// Serve a two-page fixture thread
	forum := helpers.NewForumServer(map[string]string{
		threadPath: helpers.ThreadPageHTML("Big Topic", threadPath+"/page-2",
			helpers.TestPost{ID: "post-101", Author: "alice", Floor: 1, Timestamp: 1700000000, Body: "Opening post."},
			helpers.TestPost{ID: "post-102", Author: "bob", Floor: 2, Timestamp: 1700000600, Body: "First reply.", Reactions: "alice"},
		),
		threadPath + "/page-2": helpers.ThreadPageHTML("Big Topic", "",
			helpers.TestPost{ID: "post-103", Author: "carol", Floor: 3, Timestamp: 1700001200, Body: "Second reply."},
		),
	})
	defer forum.Close()

	engine := syncer.New(
		fetcher.NewThreadFetcher(fetcher.Config{
			RequestDelay:   time.Millisecond,
			RequestTimeout: 5 * time.Second,
		}, logger.NewNoOp()),
		st,
		&config.SyncConfig{MaxConcurrent: 2, FetchTimeout: 30 * time.Second},
		logger.NewNoOp(),
	)

	threadURL := forum.URL() + threadPath

	// First sync registers the thread and stores every post.
	result, err := engine.Sync(ctx, threadURL, syncer.Options{})
	require.NoError(t, err, "first sync failed")
	require.True(t, result.FirstSync)
	require.Equal(t, 3, result.Inserted)
	require.Equal(t, 3, result.FetchedPosts)
	require.NotEmpty(t, result.ThreadUUID)

	thread, err := st.GetThreadByURL(ctx, threadURL)
	require.NoError(t, err)
	require.Equal(t, result.ThreadUUID, thread.UUID)
	require.Equal(t, "Big Topic", thread.Title)
	require.Equal(t, 3, thread.PostCount)
	require.Equal(t, 3, thread.AuthorCount)
	require.Equal(t, int64(1700000000000), thread.FirstPostAt)
	require.Equal(t, int64(1700001200000), thread.LastPostAt)

	posts, err := st.ListPosts(ctx, thread.UUID)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	require.Equal(t, "post-101", posts[0].PostID)
	require.Equal(t, "Opening post.", posts[0].ContentText)
	require.Equal(t, 1, posts[1].ReactionCount, "reactions bar with one name counts as one")

	// The source gains a post; the incremental walk resumes at the stored
	// tail and inserts only the new one.
	forum.SetPage(threadPath+"/post-103", helpers.ThreadPageHTML("Big Topic", "",
		helpers.TestPost{ID: "post-103", Author: "carol", Floor: 3, Timestamp: 1700001200, Body: "Second reply."},
		helpers.TestPost{ID: "post-104", Author: "alice", Floor: 4, Timestamp: 1700001800, Body: "Late addition."},
	))

	result, err = engine.Sync(ctx, threadURL, syncer.Options{})
	require.NoError(t, err, "incremental sync failed")
	require.False(t, result.FirstSync)
	require.Equal(t, 1, result.Inserted)
	require.Equal(t, 0, result.Updated)
	require.Equal(t, 1, result.Unchanged)
	require.Zero(t, result.MissingInFetch, "partial walks cannot observe absence")

	thread, err = st.GetThreadByURL(ctx, threadURL)
	require.NoError(t, err)
	require.Equal(t, 4, thread.PostCount)
	require.Equal(t, 3, thread.AuthorCount)
	require.Equal(t, int64(1700001800000), thread.LastPostAt)

	// A dry run reports the pending insert without writing it.
	forum.SetPage(threadPath+"/post-104", helpers.ThreadPageHTML("Big Topic", "",
		helpers.TestPost{ID: "post-104", Author: "alice", Floor: 4, Timestamp: 1700001800, Body: "Late addition."},
		helpers.TestPost{ID: "post-105", Author: "dave", Floor: 5, Timestamp: 1700002400, Body: "Brand new."},
	))

	result, err = engine.Sync(ctx, threadURL, syncer.Options{DryRun: true})
	require.NoError(t, err, "dry-run sync failed")
	require.True(t, result.DryRun)
	require.Equal(t, 1, result.Inserted)

	count, err := st.CountThreadPosts(ctx, thread.UUID)
	require.NoError(t, err)
	require.Equal(t, 4, count, "dry run must not write")
}

func TestIntegration_SyncUpdatesChangedPosts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := helpers.StartPostgres(ctx)
	require.NoError(t, err, "failed to start PostgreSQL container")
	defer func() {
		_ = pgContainer.Stop(ctx)
	}()

	db, err := store.NewPostgresConnection(pgContainer.DatabaseConfig())
	require.NoError(t, err, "failed to connect to database")
	defer db.Close()

	require.NoError(t, store.EnsureSchema(ctx, db), "failed to ensure schema")
	st := store.New(db)

	forum := helpers.NewForumServer(map[string]string{
		threadPath: helpers.ThreadPageHTML("Big Topic", "",
			helpers.TestPost{ID: "post-101", Author: "alice", Floor: 1, Timestamp: 1700000000, Body: "Opening post."},
			helpers.TestPost{ID: "post-102", Author: "bob", Floor: 2, Timestamp: 1700000600, Body: "First reply."},
		),
	})
	defer forum.Close()

	engine := syncer.New(
		fetcher.NewThreadFetcher(fetcher.Config{
			RequestDelay:   time.Millisecond,
			RequestTimeout: 5 * time.Second,
		}, logger.NewNoOp()),
		st,
		&config.SyncConfig{MaxConcurrent: 2, FetchTimeout: 30 * time.Second},
		logger.NewNoOp(),
	)

	threadURL := forum.URL() + threadPath

	result, err := engine.Sync(ctx, threadURL, syncer.Options{})
	require.NoError(t, err, "first sync failed")
	require.Equal(t, 2, result.Inserted)

	// An edit to the stored tail post changes its fingerprint; the resumed
	// walk picks it up as an update in place.
	forum.SetPage(threadPath+"/post-102", helpers.ThreadPageHTML("Big Topic", "",
		helpers.TestPost{ID: "post-102", Author: "bob", Floor: 2, Timestamp: 1700000600, Body: "First reply, now edited.", Reactions: "alice and 2 others"},
	))

	result, err = engine.Sync(ctx, threadURL, syncer.Options{})
	require.NoError(t, err, "second sync failed")
	require.Equal(t, 0, result.Inserted)
	require.Equal(t, 1, result.Updated)

	thread, err := st.GetThreadByURL(ctx, threadURL)
	require.NoError(t, err)
	require.Equal(t, 2, thread.PostCount, "updates must not duplicate rows")

	posts, err := st.ListPosts(ctx, thread.UUID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "First reply, now edited.", posts[1].ContentText)
	require.Equal(t, 3, posts[1].ReactionCount)
}
