// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	TeamsTable       = "team"
	PlayersTable     = "player"
	RostersTable     = "roster"
	OnRosterTable    = "on_roster"
	GamesTable       = "game"
	PointsTable      = "point"
	EventsTable      = "event"
	PlayedPointTable = "played_point"
)

// Load status values stored on game rows.
const (
	LoadStatusLoaded = "loaded"
	LoadStatusFailed = "failed"
)

// ErrNoDatabase is returned by RequireDatabase when DATABASE_URL is unset.
var ErrNoDatabase = errors.New("DATABASE_URL must be set")

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string        `env:"DATABASE_URL"`
	DBPoolMinConns int           `env:"DB_POOL_MIN_CONNS" envDefault:"2"`
	DBPoolMaxConns int           `env:"DB_POOL_MAX_CONNS" envDefault:"10"`
	DBPoolMaxLife  time.Duration `env:"DB_POOL_MAX_LIFE"  envDefault:"30m"`

	// Stats server
	AUDLBaseURL           string `env:"AUDL_BASE_URL"            envDefault:"https://audl-stat-server.herokuapp.com/web-api/game-stats"`
	AUDLRequestsPerMinute int    `env:"AUDL_REQUESTS_PER_MINUTE" envDefault:"30"`
	AUDLMaxRetries        int    `env:"AUDL_MAX_RETRIES"         envDefault:"3"`

	// Publishing; empty RedisURL disables it.
	RedisURL    string `env:"REDIS_URL"`
	RedisStream string `env:"REDIS_STREAM" envDefault:"audl.games.loaded"`

	// API server
	APIHost     string `env:"API_HOST"    envDefault:"0.0.0.0"`
	APIPort     int    `env:"API_PORT"    envDefault:"8000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	LogLevel    string `env:"LOG_LEVEL"   envDefault:"info"`

	// CORS
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:4321,http://localhost:5173"`

	// Rate limiting
	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED"  envDefault:"true"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW"   envDefault:"60s"`

	// Cache
	CacheEnabled bool `env:"CACHE_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.CORSAllowOrigins = trimList(cfg.CORSAllowOrigins)
	if cfg.AUDLRequestsPerMinute < 1 {
		return nil, fmt.Errorf("AUDL_REQUESTS_PER_MINUTE must be positive, got %d", cfg.AUDLRequestsPerMinute)
	}
	if cfg.AUDLMaxRetries < 0 {
		return nil, fmt.Errorf("AUDL_MAX_RETRIES must not be negative, got %d", cfg.AUDLMaxRetries)
	}
	return &cfg, nil
}

// RequireDatabase fails when no database is configured. Commands that only
// parse offline skip this check.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrNoDatabase
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
