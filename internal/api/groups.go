package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solarward/solarward-core/internal/window"
)

// handleListGroups returns all window groups.
//
// GET /groups
// Response: {"groups": [...], "count": N}
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.repo.ListGroups(r.Context())
	if err != nil {
		s.logger.Error("failed to list groups", "error", err)
		writeInternalError(w, "failed to list groups")
		return
	}
	if groups == nil {
		groups = []window.Group{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

// handleCreateGroup creates a new window group.
//
// POST /groups
// Body: Group JSON
// Response: 201 Created with the created group
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var group window.Group
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if group.ID == "" {
		writeBadRequest(w, "id is required")
		return
	}
	if group.Name == "" || len(group.Name) > maxNameLength {
		writeBadRequest(w, "name is required and must be at most 128 characters")
		return
	}

	if err := s.repo.CreateGroup(r.Context(), &group); err != nil {
		if errors.Is(err, window.ErrGroupExists) {
			writeConflict(w, "a group with this id already exists")
			return
		}
		if errors.Is(err, window.ErrInvalidName) {
			writeBadRequest(w, "invalid group name")
			return
		}
		s.logger.Error("failed to create group", "error", err)
		writeInternalError(w, "failed to create group")
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

// handleGetGroup returns a single group by ID.
//
// GET /groups/{id}
// Response: Group JSON
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	group, err := s.repo.GetGroup(r.Context(), id)
	if err != nil {
		if errors.Is(err, window.ErrGroupNotFound) {
			writeNotFound(w, "group not found")
			return
		}
		s.logger.Error("failed to get group", "error", err, "id", id)
		writeInternalError(w, "failed to get group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// handleUpdateGroup partially updates a group via PATCH semantics.
//
// PATCH /groups/{id}
// Body: partial Group fields (name, kind, overrides)
// Response: updated Group JSON
func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	group, err := s.repo.GetGroup(r.Context(), id)
	if err != nil {
		if errors.Is(err, window.ErrGroupNotFound) {
			writeNotFound(w, "group not found")
			return
		}
		s.logger.Error("failed to get group", "error", err, "id", id)
		writeInternalError(w, "failed to get group")
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
		group.Name = name
	}
	if v, ok := raw["kind"]; ok {
		var kind string
		if err := json.Unmarshal(v, &kind); err != nil || kind == "" {
			writeBadRequest(w, "kind must be a non-empty string")
			return
		}
		group.Kind = kind
	}
	if v, ok := raw["overrides"]; ok {
		var overrides window.ConfigLayer
		if err := json.Unmarshal(v, &overrides); err != nil {
			writeBadRequest(w, "invalid overrides layer")
			return
		}
		group.Overrides = overrides
	}

	if err := s.repo.UpdateGroup(r.Context(), group); err != nil {
		if errors.Is(err, window.ErrGroupNotFound) {
			writeNotFound(w, "group not found")
			return
		}
		s.logger.Error("failed to update group", "error", err, "id", id)
		writeInternalError(w, "failed to update group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// handleDeleteGroup removes a group. Windows referencing it keep running
// with their group link cleared.
//
// DELETE /groups/{id}
// Response: 204 No Content
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.repo.DeleteGroup(r.Context(), id); err != nil {
		if errors.Is(err, window.ErrGroupNotFound) {
			writeNotFound(w, "group not found")
			return
		}
		s.logger.Error("failed to delete group", "error", err, "id", id)
		writeInternalError(w, "failed to delete group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
