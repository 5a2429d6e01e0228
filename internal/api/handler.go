package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"webshell-backend/config"
	"webshell-backend/internal/catalog"
	"webshell-backend/internal/notification"
	"webshell-backend/internal/registry"
	"webshell-backend/internal/store"
)

// Deps are the services the handlers call into.
type Deps struct {
	Devices        *registry.Registry
	Broadcaster    *notification.Broadcaster
	Sites          *catalog.SiteService
	Versions       *catalog.VersionService
	Icons          *catalog.IconService
	VAPIDPublicKey string
	History        config.HistoryConfig
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// abortWithError maps service errors to status codes.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalid), errors.Is(err, registry.ErrMissingDeviceID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
