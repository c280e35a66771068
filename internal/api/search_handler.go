package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Search handles GET /api/search. It queries the optional content index;
// when search is not enabled the endpoint says so rather than guessing.
func (h *Handler) Search(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success:   false,
			Message:   "search is not enabled",
			RequestID: requestIDFrom(c),
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "query parameter q is required")
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultSearchSize)))
	if err != nil || size <= 0 {
		size = defaultSearchSize
	}

	results, err := h.searcher.SearchPosts(c.Request.Context(), query, size)
	if err != nil {
		h.logger.Error("search request failed",
			"query", query,
			"request_id", requestIDFrom(c),
			"error", err)
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "", results)
}
