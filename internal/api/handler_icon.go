package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateIconRequest struct {
	IconURL string `json:"iconUrl" binding:"required"`
}

// GetIcon handles GET /api/icon.get.
func (h *Handler) GetIcon(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iconUrl": h.Icons.Get(c.Request.Context())})
}

// UpdateIcon handles POST /api/icon.update.
func (h *Handler) UpdateIcon(c *gin.Context) {
	var req updateIconRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	iconURL, err := h.Icons.Update(c.Request.Context(), req.IconURL)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "iconUrl": iconURL})
}
