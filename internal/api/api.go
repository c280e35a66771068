// Package api implements the HTTP API for the thread sync service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/logger"
	"github.com/jonesrussell/threadsync/internal/search"
	"github.com/jonesrussell/threadsync/internal/syncer"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	defaultSearchSize = 10
)

// requestIDHeader carries the request ID in and out of the API.
const requestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key holding the request ID.
const requestIDKey = "request_id"

// SyncRunner runs one sync cycle for a thread. *syncer.Orchestrator
// satisfies it.
type SyncRunner interface {
	Sync(ctx context.Context, threadURL string, opts syncer.Options) (*domain.SyncResult, error)
}

// WatcherRegistry is the watcher control surface. *watch.Registry satisfies it.
type WatcherRegistry interface {
	Create(threadURL string, sched domain.Schedule) (*domain.WatcherView, error)
	Get(id string) (*domain.WatcherView, error)
	List() []*domain.WatcherView
	Stop(id string) error
	ForceRun(ctx context.Context, id string) (*domain.SyncResult, error)
}

// ThreadReader reads stored threads and their posts. *store.Store satisfies it.
type ThreadReader interface {
	GetThread(ctx context.Context, id string) (*domain.Thread, error)
	ListThreads(ctx context.Context, limit, offset int) ([]*domain.Thread, error)
	CountThreads(ctx context.Context) (int, error)
	ListThreadPosts(ctx context.Context, threadUUID string, limit, offset int) ([]domain.Post, error)
	CountThreadPosts(ctx context.Context, threadUUID string) (int, error)
}

// PostSearcher queries the content index. *search.Service satisfies it.
type PostSearcher interface {
	SearchPosts(ctx context.Context, query string, size int) (*search.Results, error)
}

// Handler holds the dependencies shared by all endpoint handlers.
type Handler struct {
	syncer   SyncRunner
	registry WatcherRegistry
	store    ThreadReader
	searcher PostSearcher
	logger   logger.Interface
}

// NewHandler creates the API handler set.
func NewHandler(
	runner SyncRunner,
	registry WatcherRegistry,
	store ThreadReader,
	log logger.Interface,
) *Handler {
	return &Handler{
		syncer:   runner,
		registry: registry,
		store:    store,
		logger:   log,
	}
}

// SetSearcher attaches the optional content search backend. Without it the
// search endpoint reports that search is disabled.
func (h *Handler) SetSearcher(searcher PostSearcher) {
	h.searcher = searcher
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(log logger.Interface, h *Handler) *gin.Engine {
	// Disable Gin's default logging
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))

	router.GET("/health", h.Health)

	apiGroup := router.Group("/api")
	apiGroup.POST("/crawl", h.Crawl)
	apiGroup.POST("/sync", h.Sync)

	apiGroup.POST("/watchers", h.CreateWatcher)
	apiGroup.GET("/watchers", h.ListWatchers)
	apiGroup.GET("/watchers/:id", h.GetWatcher)
	apiGroup.DELETE("/watchers/:id", h.StopWatcher)
	apiGroup.POST("/watchers/:id/force-sync", h.ForceSync)

	apiGroup.GET("/threads", h.ListThreads)
	apiGroup.GET("/threads/:uuid", h.GetThread)
	apiGroup.GET("/threads/:uuid/posts", h.ListThreadPosts)

	apiGroup.GET("/search", h.Search)

	return router
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestIDMiddleware assigns every request an ID, reusing the caller's
// when provided, and echoes it on the response.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// loggingMiddleware creates a middleware that logs HTTP requests.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", statusCode,
			"latency", latency,
			"request_id", requestIDFrom(c),
		)
	}
}

// requestIDFrom returns the request ID assigned by the middleware.
func requestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
