package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListThreads handles GET /api/threads.
func (h *Handler) ListThreads(c *gin.Context) {
	limit, offset := pageParams(c)

	threads, err := h.store.ListThreads(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	total, err := h.store.CountThreads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "", ThreadListData{
		Threads: threads,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// GetThread handles GET /api/threads/:uuid.
func (h *Handler) GetThread(c *gin.Context) {
	thread, err := h.store.GetThread(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", thread)
}

// ListThreadPosts handles GET /api/threads/:uuid/posts. Posts come back in
// reading order: floor, then post timestamp, then post ID.
func (h *Handler) ListThreadPosts(c *gin.Context) {
	threadUUID := c.Param("uuid")

	// Resolve the thread first so an unknown UUID is a 404, not an empty page.
	if _, err := h.store.GetThread(c.Request.Context(), threadUUID); err != nil {
		respondError(c, err)
		return
	}

	limit, offset := pageParams(c)

	posts, err := h.store.ListThreadPosts(c.Request.Context(), threadUUID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	total, err := h.store.CountThreadPosts(c.Request.Context(), threadUUID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "", PostListData{
		ThreadUUID: threadUUID,
		Posts:      posts,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
	})
}

// pageParams reads limit/offset query parameters with sane bounds.
func pageParams(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
