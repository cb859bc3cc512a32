package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/foodgram/backend/internal/service"
)

// abortWithError maps service errors onto the HTTP error taxonomy:
// validation and conflicts 400, not-found 404, forbidden 403,
// everything else 500.
func abortWithError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var cerr *service.ConflictError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{verr.Field: []string{verr.Message}})
	case errors.As(err, &cerr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": cerr.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}
