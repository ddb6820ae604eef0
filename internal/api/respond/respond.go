// Package respond writes the API's JSON responses. Game and point bodies
// carry cache headers sized to what they describe, and errors name the game
// and point they concern.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/albapepper/audl-stats/internal/cache"
)

// Target names the game, and optionally the point, a response describes.
// Sequence is 0 for a whole game.
type Target struct {
	ExtGameID string
	Sequence  int
}

// Game targets a whole game.
func Game(extGameID string) Target {
	return Target{ExtGameID: extGameID}
}

// Point targets one point of a game.
func Point(extGameID string, sequence int) Target {
	return Target{ExtGameID: extGameID, Sequence: sequence}
}

// IsPoint reports whether t names a single point.
func (t Target) IsPoint() bool {
	return t.Sequence > 0
}

// CacheKey is the response cache key for t.
func (t Target) CacheKey() string {
	if t.IsPoint() {
		return cache.PointKey(t.ExtGameID, t.Sequence)
	}
	return cache.GameKey(t.ExtGameID)
}

// TTL is how long clients and the response cache may keep t's body.
func (t Target) TTL() time.Duration {
	if t.IsPoint() {
		return cache.TTLPoint
	}
	return cache.TTLGame
}

func (t Target) String() string {
	if t.IsPoint() {
		return fmt.Sprintf("point %d of game %s", t.Sequence, t.ExtGameID)
	}
	return "game " + t.ExtGameID
}

// ErrorResponse is the error shape for every API error. Game and point
// fields are set when the error concerns one.
type ErrorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		ExtGameID string `json:"ext_game_id,omitempty"`
		Sequence  int    `json:"sequence,omitempty"`
		Detail    string `json:"detail,omitempty"`
	} `json:"error"`
}

// WriteBody writes a cached game or point body with ETag and cache headers.
func WriteBody(w http.ResponseWriter, t Target, data []byte, etag string, cacheHit bool) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Vary", "Accept-Encoding")
	setCacheHeaders(w, t.TTL(), cacheHit)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified sends a 304 with the matching ETag. Cache-Control is
// repeated so the client's copy is refreshed.
func WriteNotModified(w http.ResponseWriter, t Target, etag string) {
	w.Header().Set("ETag", etag)
	setCacheHeaders(w, t.TTL(), true)
	w.WriteHeader(http.StatusNotModified)
}

// WriteNotFound reports that no data is stored for t.
func WriteNotFound(w http.ResponseWriter, t Target) {
	WriteTargetError(w, http.StatusNotFound, t, "NOT_FOUND", "No data for "+t.String(), "")
}

// WriteTargetError sends an error about a game or point.
func WriteTargetError(w http.ResponseWriter, status int, t Target, code, message, detail string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.ExtGameID = t.ExtGameID
	resp.Error.Sequence = t.Sequence
	resp.Error.Detail = detail
	writeError(w, status, resp)
}

// WriteError sends an error that concerns no particular game.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	writeError(w, status, resp)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteJSONObject marshals a value and writes it uncached, for health checks
// and the index.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func setCacheHeaders(w http.ResponseWriter, ttl time.Duration, cacheHit bool) {
	maxAge := int(ttl.Seconds())
	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Cache-Control",
		fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2))
}
