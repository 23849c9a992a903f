package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solarward/solarward-core/internal/window"
)

// handleGetGlobalConfig returns the fleet-wide base configuration layer.
//
// GET /config/global
// Response: {"fields": {...}, "count": N}
func (s *Server) handleGetGlobalConfig(w http.ResponseWriter, r *http.Request) {
	layer, err := s.repo.GlobalLayer(r.Context())
	if err != nil {
		s.logger.Error("failed to load global config", "error", err)
		writeInternalError(w, "failed to load global config")
		return
	}
	if layer == nil {
		layer = window.ConfigLayer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": layer, "count": len(layer)})
}

// handleSetGlobalField writes one field of the global layer.
//
// PUT /config/global/{field}
// Body: {"value": <number|string|bool|null>}
// Response: {"field": ..., "value": ...}
//
// The change takes effect on the next engine run; no restart is needed.
func (s *Server) handleSetGlobalField(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	if !window.IsKnownField(field) {
		writeBadRequest(w, "unknown configuration field")
		return
	}

	var body struct {
		Value window.Value `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.repo.SetGlobalField(r.Context(), field, body.Value); err != nil {
		if errors.Is(err, window.ErrInvalidValue) {
			writeBadRequest(w, "invalid field value")
			return
		}
		s.logger.Error("failed to set global field", "error", err, "field", field)
		writeInternalError(w, "failed to set global field")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"field": field, "value": body.Value})
}
