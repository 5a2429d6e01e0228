package mw

import (
	"time"

	"github.com/gin-gonic/gin"

	"webshell-backend/internal/metrics"
)

// Metrics records request count and latency per matched route.
func Metrics(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.IncRequestsTotal(route, c.Writer.Status())
		rec.ObserveRequestDuration(route, time.Since(start))
	}
}
