package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webshell-backend/internal/registry"
)

type registerDeviceRequest struct {
	DeviceID             string  `json:"deviceId" binding:"required,max=255"`
	NotificationsEnabled *bool   `json:"notificationsEnabled" binding:"required"`
	Subscription         *string `json:"subscription"`
	UserAgent            string  `json:"userAgent"`
}

// RegisterDevice handles POST /api/device.register.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}

	if err := h.Devices.Register(c.Request.Context(), registry.Registration{
		DeviceID:             req.DeviceID,
		NotificationsEnabled: *req.NotificationsEnabled,
		Subscription:         req.Subscription,
		UserAgent:            userAgent,
	}); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeviceStats handles GET /api/device.stats.
func (h *Handler) DeviceStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Devices.Stats(c.Request.Context()))
}
