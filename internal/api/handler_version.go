package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateVersionRequest struct {
	Version      string  `json:"version" binding:"required"`
	ReleaseNotes *string `json:"releaseNotes"`
}

// CurrentVersion handles GET /api/version.current. The body is null until a
// version has been released.
func (h *Handler) CurrentVersion(c *gin.Context) {
	c.JSON(http.StatusOK, h.Versions.Current(c.Request.Context()))
}

// ListVersions handles GET /api/version.list.
func (h *Handler) ListVersions(c *gin.Context) {
	c.JSON(http.StatusOK, h.Versions.List(c.Request.Context()))
}

// UpdateVersion handles POST /api/version.update.
func (h *Handler) UpdateVersion(c *gin.Context) {
	var req updateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, sent, err := h.Versions.Update(c.Request.Context(), req.Version, req.ReleaseNotes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notificationsSent": sent})
}
