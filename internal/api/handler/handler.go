// Package handler provides HTTP handlers for all API endpoints.
// Handlers read reconstructed games through a Store and serve them as
// cached JSON with ETags.
package handler

import (
	"net/http"
	"time"

	"github.com/albapepper/audl-stats/internal/api/respond"
	"github.com/albapepper/audl-stats/internal/cache"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store Store
	cache *cache.Cache
}

// New creates a Handler with shared dependencies.
func New(store Store, c *cache.Cache) *Handler {
	return &Handler{store: store, cache: c}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "AUDL Stats API",
		"version": "1.0.0",
		"status":  "running",
		"routes": []string{
			"/api/v1/games/{extGameID}",
			"/api/v1/games/{extGameID}/points/{sequence}",
		},
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
