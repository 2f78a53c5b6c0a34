package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/cheshire-bot/internal/http/middleware"
	"github.com/tbourn/cheshire-bot/internal/repo"
	"github.com/tbourn/cheshire-bot/internal/services"
)

// Stable error codes returned in ErrorResponse.Code.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Persistence failures; the cache is still serving.
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeFlushFailed      = "flush_failed"
)

// failService maps a services error to a status and code.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
	case errors.Is(err, services.ErrTriggerNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "trigger not found")
	case errors.Is(err, services.ErrUserExists):
		fail(c, http.StatusConflict, ErrCodeConflict, "user already exists")
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be one of: read, trade, admin")
	case errors.Is(err, repo.ErrConnectionFailed):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "store unavailable")
	case errors.Is(err, services.ErrPersistence):
		middleware.LoggerFrom(c).Error().Err(err).Msg("store failure")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "store failure")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
