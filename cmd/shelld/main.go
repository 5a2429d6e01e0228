package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"webshell-backend/config"
	"webshell-backend/internal/api"
	"webshell-backend/internal/catalog"
	"webshell-backend/internal/db"
	"webshell-backend/internal/metrics"
	"webshell-backend/internal/notification"
	"webshell-backend/internal/push"
	"webshell-backend/internal/registry"
	"webshell-backend/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	setupLogger(cfg.Log)
	log.Info().Str("path", configPath).Msg("configuration loaded")

	webpushOptions := &webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
		Urgency:         webpush.Urgency(cfg.Push.Urgency),
	}
	adapter, err := push.NewAdapter(webpushOptions, push.WithTimeout(cfg.Push.DeliveryTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("VAPID keys must be configured, generate them with cmd/vapidkeys")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	appStore := store.NewGormStore(gormDB)

	var (
		recorder       metrics.Recorder = metrics.Noop{}
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheus(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	devices := registry.New(appStore)
	broadcaster := notification.NewBroadcaster(devices, appStore, adapter,
		notification.WithMetrics(recorder),
		notification.WithWorkers(cfg.WorkerPool.Size),
		notification.WithPruneGone(cfg.Push.PruneGoneSubscriptions),
	)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	handler := api.NewHandler(api.Deps{
		Devices:        devices,
		Broadcaster:    broadcaster,
		Sites:          catalog.NewSiteService(appStore, broadcaster),
		Versions:       catalog.NewVersionService(appStore, broadcaster),
		Icons:          catalog.NewIconService(appStore),
		VAPIDPublicKey: adapter.PublicKey(),
		History:        cfg.History,
	})
	router := api.NewRouter(handler, api.RouterOptions{
		Server:         cfg.Server,
		Metrics:        recorder,
		MetricsHandler: metricsHandler,
	})
	if cfg.Server.AdminToken == "" {
		log.Warn().Msg("no admin token configured, admin procedures are open")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	log.Info().Msg("shutdown signal received, stopping services")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server Shutdown")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info().Msg("server gracefully stopped")
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "shelld").Logger()
}
