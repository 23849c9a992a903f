package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// System metrics
		r.Get("/metrics", s.handleMetrics)

		// Window endpoints
		r.Route("/windows", func(r chi.Router) {
			r.Get("/", s.handleListWindows)
			r.Post("/", s.handleCreateWindow)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetWindow)
				r.Patch("/", s.handleUpdateWindow)
				r.Delete("/", s.handleDeleteWindow)
				r.Get("/result", s.handleGetWindowResult)
			})
		})

		// Group endpoints
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Post("/", s.handleCreateGroup)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetGroup)
				r.Patch("/", s.handleUpdateGroup)
				r.Delete("/", s.handleDeleteGroup)
			})
		})

		// Global configuration layer
		r.Route("/config/global", func(r chi.Router) {
			r.Get("/", s.handleGetGlobalConfig)
			r.Put("/{field}", s.handleSetGlobalField)
		})

		// Latest calculation results
		r.Get("/results/latest", s.handleLatestResults)

		// WebSocket (real-time batch result broadcasts)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
