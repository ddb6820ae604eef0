// Command api is the AUDL stats read API server.
//
// Usage:
//
//	audl-api
//	API_PORT=8080 audl-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/audl-stats/internal/api"
	"github.com/albapepper/audl-stats/internal/api/handler"
	"github.com/albapepper/audl-stats/internal/cache"
	"github.com/albapepper/audl-stats/internal/config"
	"github.com/albapepper/audl-stats/internal/db"
	"github.com/albapepper/audl-stats/internal/publisher"
)

func main() {
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logLevel.Set(cfg.SlogLevel())

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Drop cached responses for reloaded games
	if cfg.CacheEnabled && cfg.RedisURL != "" {
		consumer, err := publisher.ConnectConsumer(ctx, cfg.RedisURL, cfg.RedisStream, logger)
		if err != nil {
			logger.Warn("Cache invalidation disabled", "error", err)
		} else {
			defer consumer.Close()
			go consumer.Run(ctx, func(ev publisher.GameLoadedEvent) {
				n := appCache.InvalidateGame(ev.ExtGameID)
				logger.Info("Game reloaded, cache invalidated", "ext_game_id", ev.ExtGameID, "keys", n)
			})
		}
	}

	// Create router
	router := api.NewRouter(handler.NewPGStore(pool.Pool), appCache, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting AUDL Stats API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
