package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/threadsync/internal/domain"
	"github.com/jonesrussell/threadsync/internal/watch"
)

// respond writes a success envelope.
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestIDFrom(c),
		Timestamp: time.Now().UnixMilli(),
	})
}

// respondError maps an error onto the taxonomy's HTTP status and writes a
// failure envelope.
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), Response{
		Success:   false,
		Message:   err.Error(),
		RequestID: requestIDFrom(c),
		Timestamp: time.Now().UnixMilli(),
	})
}

// respondBadRequest writes a failure envelope for malformed requests.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success:   false,
		Message:   message,
		RequestID: requestIDFrom(c),
		Timestamp: time.Now().UnixMilli(),
	})
}

// statusForError translates the domain error taxonomy to HTTP statuses.
// Anything unclassified is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDuplicateWatcher):
		return http.StatusConflict
	case errors.Is(err, watch.ErrWatcherStopped):
		return http.StatusConflict
	case errors.Is(err, watch.ErrInvalidSchedule):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
