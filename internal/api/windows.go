package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solarward/solarward-core/internal/window"
)

// maxNameLength bounds window and group names.
const maxNameLength = 128

// handleListWindows returns all configured windows.
//
// GET /windows
// Response: {"windows": [...], "count": N}
func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.repo.ListWindows(r.Context())
	if err != nil {
		s.logger.Error("failed to list windows", "error", err)
		writeInternalError(w, "failed to list windows")
		return
	}
	if windows == nil {
		windows = []window.Window{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": windows, "count": len(windows)})
}

// handleCreateWindow creates a new window.
//
// POST /windows
// Body: Window JSON
// Response: 201 Created with the created window
func (s *Server) handleCreateWindow(w http.ResponseWriter, r *http.Request) {
	var win window.Window
	if err := json.NewDecoder(r.Body).Decode(&win); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if win.ID == "" {
		writeBadRequest(w, "id is required")
		return
	}
	if win.Name == "" || len(win.Name) > maxNameLength {
		writeBadRequest(w, "name is required and must be at most 128 characters")
		return
	}
	if win.GroupID != nil {
		if !s.groupExists(w, r, *win.GroupID) {
			return
		}
	}

	if err := s.repo.CreateWindow(r.Context(), &win); err != nil {
		if errors.Is(err, window.ErrWindowExists) {
			writeConflict(w, "a window with this id already exists")
			return
		}
		if errors.Is(err, window.ErrInvalidName) {
			writeBadRequest(w, "invalid window name")
			return
		}
		s.logger.Error("failed to create window", "error", err)
		writeInternalError(w, "failed to create window")
		return
	}

	writeJSON(w, http.StatusCreated, win)
}

// handleGetWindow returns a single window by ID.
//
// GET /windows/{id}
// Response: Window JSON
func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	win, err := s.repo.GetWindow(r.Context(), id)
	if err != nil {
		if errors.Is(err, window.ErrWindowNotFound) {
			writeNotFound(w, "window not found")
			return
		}
		s.logger.Error("failed to get window", "error", err, "id", id)
		writeInternalError(w, "failed to get window")
		return
	}

	writeJSON(w, http.StatusOK, win)
}

// handleUpdateWindow partially updates a window via PATCH semantics.
//
// PATCH /windows/{id}
// Body: partial Window fields (name, group_id, indoor_sensor, overrides)
// Response: updated Window JSON
func (s *Server) handleUpdateWindow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	win, err := s.repo.GetWindow(r.Context(), id)
	if err != nil {
		if errors.Is(err, window.ErrWindowNotFound) {
			writeNotFound(w, "window not found")
			return
		}
		s.logger.Error("failed to get window", "error", err, "id", id)
		writeInternalError(w, "failed to get window")
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(raw) == 0 {
		writeBadRequest(w, "no fields to update")
		return
	}

	if v, ok := raw["name"]; ok {
		var name string
		if json.Unmarshal(v, &name) != nil || name == "" || len(name) > maxNameLength {
			writeBadRequest(w, "name must be a non-empty string of at most 128 characters")
			return
		}
		win.Name = name
	}
	if v, ok := raw["group_id"]; ok {
		var groupID *string
		if err := json.Unmarshal(v, &groupID); err != nil {
			writeBadRequest(w, "group_id must be a string or null")
			return
		}
		if groupID != nil && !s.groupExists(w, r, *groupID) {
			return
		}
		win.GroupID = groupID
	}
	if v, ok := raw["indoor_sensor"]; ok {
		var sensor string
		if err := json.Unmarshal(v, &sensor); err != nil {
			writeBadRequest(w, "indoor_sensor must be a string")
			return
		}
		win.IndoorSensor = sensor
	}
	if v, ok := raw["overrides"]; ok {
		var overrides window.ConfigLayer
		if err := json.Unmarshal(v, &overrides); err != nil {
			writeBadRequest(w, "invalid overrides layer")
			return
		}
		win.Overrides = overrides
	}

	if err := s.repo.UpdateWindow(r.Context(), win); err != nil {
		if errors.Is(err, window.ErrWindowNotFound) {
			writeNotFound(w, "window not found")
			return
		}
		s.logger.Error("failed to update window", "error", err, "id", id)
		writeInternalError(w, "failed to update window")
		return
	}

	writeJSON(w, http.StatusOK, win)
}

// handleDeleteWindow removes a window.
//
// DELETE /windows/{id}
// Response: 204 No Content
func (s *Server) handleDeleteWindow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.repo.DeleteWindow(r.Context(), id); err != nil {
		if errors.Is(err, window.ErrWindowNotFound) {
			writeNotFound(w, "window not found")
			return
		}
		s.logger.Error("failed to delete window", "error", err, "id", id)
		writeInternalError(w, "failed to delete window")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetWindowResult returns the latest calculation result for one window.
//
// GET /windows/{id}/result
// Response: WindowResult JSON
func (s *Server) handleGetWindowResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	latest := s.results.Latest()
	if latest == nil {
		writeNotFound(w, "no calculation results yet")
		return
	}

	res, ok := latest.Windows[id]
	if !ok {
		writeNotFound(w, "no result for this window")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// groupExists validates a referenced group and writes the error response
// itself when validation fails.
func (s *Server) groupExists(w http.ResponseWriter, r *http.Request, groupID string) bool {
	_, err := s.repo.GetGroup(r.Context(), groupID)
	if err == nil {
		return true
	}
	if errors.Is(err, window.ErrGroupNotFound) {
		writeBadRequest(w, "referenced group does not exist")
		return false
	}
	s.logger.Error("failed to check group", "error", err, "id", groupID)
	writeInternalError(w, "failed to check group")
	return false
}
