package api

import "github.com/jonesrussell/threadsync/internal/domain"

// Response is the envelope every /api endpoint returns.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// SyncRequest asks for one sync cycle of a thread.
type SyncRequest struct {
	URL                   string `json:"url" binding:"required"`
	IncludeReactionDetail bool   `json:"include_reaction_detail"`
	DryRun                bool   `json:"dry_run"`
}

// CreateWatcherRequest registers a watcher for a thread.
type CreateWatcherRequest struct {
	URL      string          `json:"url" binding:"required"`
	Schedule domain.Schedule `json:"schedule" binding:"required"`
}

// WatcherListData is the payload of the watcher list endpoint.
type WatcherListData struct {
	Watchers []*domain.WatcherView `json:"watchers"`
	Total    int                   `json:"total"`
}

// ThreadListData is the payload of the thread list endpoint.
type ThreadListData struct {
	Threads []*domain.Thread `json:"threads"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// PostListData is the payload of the thread posts endpoint.
type PostListData struct {
	ThreadUUID string        `json:"thread_uuid"`
	Posts      []domain.Post `json:"posts"`
	Total      int           `json:"total"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}
