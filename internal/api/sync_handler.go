package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/threadsync/internal/syncer"
)

// Crawl handles POST /api/crawl. A crawl is a first-time ingestion: the same
// cycle as a sync, guaranteed to create the thread when it is unseen.
func (h *Handler) Crawl(c *gin.Context) {
	h.runSync(c, "crawl completed")
}

// Sync handles POST /api/sync.
func (h *Handler) Sync(c *gin.Context) {
	h.runSync(c, "sync completed")
}

func (h *Handler) runSync(c *gin.Context, message string) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request payload: url is required")
		return
	}

	result, err := h.syncer.Sync(c.Request.Context(), req.URL, syncer.Options{
		IncludeReactionDetail: req.IncludeReactionDetail,
		DryRun:                req.DryRun,
	})
	if err != nil {
		h.logger.Error("sync request failed",
			"url", req.URL,
			"request_id", requestIDFrom(c),
			"error", err)
		respondError(c, err)
		return
	}

	if result.DryRun {
		message = "dry run completed, nothing persisted"
	}
	respond(c, http.StatusOK, message, result)
}
