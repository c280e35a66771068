package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateWatcher handles POST /api/watchers.
func (h *Handler) CreateWatcher(c *gin.Context) {
	var req CreateWatcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request payload: url and schedule are required")
		return
	}

	view, err := h.registry.Create(req.URL, req.Schedule)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "watcher created", view)
}

// ListWatchers handles GET /api/watchers.
func (h *Handler) ListWatchers(c *gin.Context) {
	views := h.registry.List()
	respond(c, http.StatusOK, "", WatcherListData{
		Watchers: views,
		Total:    len(views),
	})
}

// GetWatcher handles GET /api/watchers/:id.
func (h *Handler) GetWatcher(c *gin.Context) {
	view, err := h.registry.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", view)
}

// StopWatcher handles DELETE /api/watchers/:id. The watcher stays
// inspectable afterwards; its thread is free to watch again.
func (h *Handler) StopWatcher(c *gin.Context) {
	if err := h.registry.Stop(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "watcher stopped", nil)
}

// ForceSync handles POST /api/watchers/:id/force-sync. The run executes
// synchronously; the watcher's schedule is not disturbed.
func (h *Handler) ForceSync(c *gin.Context) {
	result, err := h.registry.ForceRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "sync completed", result)
}
