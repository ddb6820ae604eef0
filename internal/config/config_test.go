package config

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "DATABASE_URL", "CORS_ALLOW_ORIGINS", "DB_POOL_MAX_CONNS", "DB_POOL_MAX_LIFE",
		"REDIS_STREAM", "AUDL_REQUESTS_PER_MINUTE", "AUDL_MAX_RETRIES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPoolMaxConns != 10 || cfg.DBPoolMaxLife != 30*time.Minute {
		t.Errorf("pool defaults = %d / %v", cfg.DBPoolMaxConns, cfg.DBPoolMaxLife)
	}
	if cfg.RedisStream != "audl.games.loaded" {
		t.Errorf("RedisStream = %q", cfg.RedisStream)
	}
	if cfg.AUDLRequestsPerMinute != 30 || cfg.AUDLMaxRetries != 3 {
		t.Errorf("audl defaults = %d rpm, %d retries", cfg.AUDLRequestsPerMinute, cfg.AUDLMaxRetries)
	}
	if len(cfg.CORSAllowOrigins) != 3 {
		t.Errorf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
	if !errors.Is(cfg.RequireDatabase(), ErrNoDatabase) {
		t.Error("RequireDatabase should fail without DATABASE_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/audl")
	t.Setenv("DB_POOL_MAX_LIFE", "5m")
	t.Setenv("AUDL_MAX_RETRIES", "0")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		t.Errorf("RequireDatabase: %v", err)
	}
	if cfg.DBPoolMaxLife != 5*time.Minute {
		t.Errorf("DBPoolMaxLife = %v", cfg.DBPoolMaxLife)
	}
	if cfg.AUDLMaxRetries != 0 {
		t.Errorf("AUDLMaxRetries = %d", cfg.AUDLMaxRetries)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[0] != want[0] || cfg.CORSAllowOrigins[1] != want[1] {
		t.Errorf("CORSAllowOrigins = %q, want %q", cfg.CORSAllowOrigins, want)
	}
	if cfg.RateLimitEnabled {
		t.Error("RateLimitEnabled should be false")
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction should be true")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"AUDL_REQUESTS_PER_MINUTE", "0"},
		{"AUDL_MAX_RETRIES", "-1"},
		{"API_PORT", "eighty"},
		{"DB_POOL_MAX_LIFE", "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		c := &Config{LogLevel: in}
		if got := c.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
