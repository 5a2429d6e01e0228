package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	History    HistoryConfig    `yaml:"history"`
}

// WorkerPoolConfig bounds how many push deliveries a single broadcast keeps in flight.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys and delivery settings for web push notifications.
type PushConfig struct {
	PublicKey              string        `yaml:"vapid_public_key"`
	PrivateKey             string        `yaml:"vapid_private_key"`
	Subject                string        `yaml:"subject"`
	TTL                    int           `yaml:"ttl"`
	Urgency                string        `yaml:"urgency"`
	DeliveryTimeoutSeconds int           `yaml:"delivery_timeout_seconds"`
	DeliveryTimeout        time.Duration `yaml:"-"`
	PruneGoneSubscriptions bool          `yaml:"prune_gone_subscriptions"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	Mode            string   `yaml:"mode"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
	AdminToken      string   `yaml:"admin_token"`
}

// DatabaseConfig holds the database connection configuration.
// A DSN prefixed with "sqlite:" selects the SQLite driver.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HistoryConfig bounds notification history reads.
type HistoryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// envOverrides are secrets supplied by the environment rather than the config file.
type envOverrides struct {
	VAPIDPublicKey  string `env:"SHELL_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"SHELL_VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `env:"SHELL_VAPID_SUBJECT"`
	DatabaseDSN     string `env:"SHELL_DATABASE_DSN"`
	AdminToken      string `env:"SHELL_ADMIN_TOKEN"`
}

// Load reads the configuration from the given path and applies environment overrides.
// A missing file is tolerated so the service can be configured from the environment alone.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("config file not found, using defaults and environment")
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setIfNotEmpty(&cfg.Push.PublicKey, overrides.VAPIDPublicKey)
	setIfNotEmpty(&cfg.Push.PrivateKey, overrides.VAPIDPrivateKey)
	setIfNotEmpty(&cfg.Push.Subject, overrides.VAPIDSubject)
	setIfNotEmpty(&cfg.Database.DSN, overrides.DatabaseDSN)
	setIfNotEmpty(&cfg.Server.AdminToken, overrides.AdminToken)
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "sqlite:webshell.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Push.DeliveryTimeoutSeconds <= 0 {
		cfg.Push.DeliveryTimeoutSeconds = 5
	}
	cfg.Push.DeliveryTimeout = time.Duration(cfg.Push.DeliveryTimeoutSeconds) * time.Second

	if cfg.WorkerPool.Size <= 0 {
		log.Info().Msg("worker_pool.size is not set or invalid; defaulting to 32")
		cfg.WorkerPool.Size = 32
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.History.DefaultLimit <= 0 {
		cfg.History.DefaultLimit = 50
	}
	if cfg.History.MaxLimit <= 0 {
		cfg.History.MaxLimit = 200
	}
	if cfg.History.DefaultLimit > cfg.History.MaxLimit {
		cfg.History.DefaultLimit = cfg.History.MaxLimit
	}
}
