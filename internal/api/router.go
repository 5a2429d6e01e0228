package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"webshell-backend/config"
	"webshell-backend/internal/metrics"
	"webshell-backend/internal/mw"
)

// RouterOptions configures the middleware around the handlers.
type RouterOptions struct {
	Server  config.ServerConfig
	Metrics metrics.Recorder
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()

	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	r.Use(gin.Recovery(), mw.Logger(), mw.Metrics(recorder), mw.CORS(opts.Server.CORSOrigins))

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(opts.Server.RateLimitPerSec), opts.Server.RateLimitBurst)

	ttl := time.Duration(opts.Server.CacheTTLSeconds) * time.Second
	responses := mw.NewResponseCache(ttl, 2*ttl)
	caching := mw.Cache(responses, ttl)
	admin := mw.AdminToken(opts.Server.AdminToken)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter, mw.FlushOnWrite(responses))
	{
		api.POST("/device.register", h.RegisterDevice)
		api.GET("/device.stats", h.DeviceStats)

		api.POST("/notification.send", admin, h.SendNotification)
		api.GET("/notification.history", h.NotificationHistory)
		api.GET("/notification.vapidPublicKey", h.GetVAPIDPublicKey)

		api.GET("/site.list", caching, h.ListSites)
		api.GET("/site.get", caching, h.GetSite)
		api.POST("/site.add", admin, h.AddSite)
		api.POST("/site.update", admin, h.UpdateSite)
		api.POST("/site.delete", admin, h.DeleteSite)

		api.GET("/version.current", caching, h.CurrentVersion)
		api.GET("/version.list", caching, h.ListVersions)
		api.POST("/version.update", admin, h.UpdateVersion)

		api.GET("/icon.get", caching, h.GetIcon)
		api.POST("/icon.update", admin, h.UpdateIcon)
	}

	return r
}
