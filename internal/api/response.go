package api

import (
	"errors"
	"net/http"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/service"
	"github.com/fame-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// respondError maps service and storage errors to an HTTP status. Anything
// unrecognised is logged and reported as a 500 without its message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "validation failed",
			"details": verr.Details,
		})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		respondMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondMessage(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrConflict), errors.Is(err, storage.ErrConflict):
		respondMessage(c, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondMessage(c, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidSession):
		respondMessage(c, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, storage.ErrInvalidKey):
		respondMessage(c, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request failed")
		respondMessage(c, http.StatusInternalServerError, "internal server error")
	}
}
