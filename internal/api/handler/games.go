package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/audl-stats/internal/api/respond"
	"github.com/albapepper/audl-stats/internal/cache"
)

// GetGame returns a game with its ordered point summaries.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	extID := chi.URLParam(r, "extGameID")
	h.serveCached(w, r, respond.Game(extID), func() (interface{}, error) {
		return h.store.Game(r.Context(), extID)
	})
}

// GetPoint returns one point with its events and played-point rows.
func (h *Handler) GetPoint(w http.ResponseWriter, r *http.Request) {
	extID := chi.URLParam(r, "extGameID")
	seq, err := strconv.Atoi(chi.URLParam(r, "sequence"))
	if err != nil || seq < 1 {
		respond.WriteTargetError(w, http.StatusBadRequest, respond.Game(extID),
			"INVALID_SEQUENCE", "sequence must be a positive integer", chi.URLParam(r, "sequence"))
		return
	}
	h.serveCached(w, r, respond.Point(extID, seq), func() (interface{}, error) {
		return h.store.Point(r.Context(), extID, seq)
	})
}

// serveCached answers from the cache when possible, honoring If-None-Match.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, t respond.Target, load func() (interface{}, error)) {
	data, etag, hit, err := h.cache.Fetch(t.CacheKey(), t.TTL(), func() ([]byte, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	switch {
	case errors.Is(err, ErrNotFound):
		respond.WriteNotFound(w, t)
		return
	case err != nil:
		respond.WriteTargetError(w, http.StatusInternalServerError, t, "INTERNAL", "Query failed", err.Error())
		return
	}

	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, t, etag)
		return
	}
	respond.WriteBody(w, t, data, etag, hit)
}
