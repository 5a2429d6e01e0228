package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendNotificationRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

type sendNotificationResponse struct {
	Success        bool     `json:"success"`
	DeliveredCount int      `json:"deliveredCount"`
	TotalDevices   int      `json:"totalDevices"`
	DeviceIDs      []string `json:"deviceIds"`
}

// SendNotification handles POST /api/notification.send. Delivery problems
// only lower deliveredCount; a failed history write is a 500 that still
// reports how many devices were reached.
func (h *Handler) SendNotification(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Broadcaster.Broadcast(c.Request.Context(), req.Title, req.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          err.Error(),
			"deliveredCount": res.DeliveredCount,
		})
		return
	}

	c.JSON(http.StatusOK, sendNotificationResponse{
		Success:        true,
		DeliveredCount: res.DeliveredCount,
		TotalDevices:   res.TotalDevices,
		DeviceIDs:      res.DeviceIDs,
	})
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// NotificationHistory handles GET /api/notification.history. Records come
// newest first (by sentAt, then id); ?limit= defaults to the configured page
// size and is capped at the configured maximum.
func (h *Handler) NotificationHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := q.Limit
	if limit == 0 {
		limit = h.History.DefaultLimit
	}
	if maxLimit := h.History.MaxLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	c.JSON(http.StatusOK, h.Broadcaster.History(c.Request.Context(), limit))
}
