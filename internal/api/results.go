package api

import (
	"net/http"
)

// handleLatestResults returns the most recent batch calculation result.
//
// GET /results/latest
// Response: BatchResult JSON (windows, groups, summary)
func (s *Server) handleLatestResults(w http.ResponseWriter, _ *http.Request) {
	latest := s.results.Latest()
	if latest == nil {
		writeNotFound(w, "no calculation results yet")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}
