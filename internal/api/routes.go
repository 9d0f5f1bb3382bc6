package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Post("/sync", h.Sync)
			r.Get("/sync/runs", h.ListSyncRuns)
			r.Get("/sync/runs/{id}/archive", h.RunArchive)
			r.Get("/sheets/read", h.ReadSheet)
			r.Get("/time-entries", h.ListTimeEntries)
			r.Get("/time-entries/{id}", h.GetTimeEntry)
			r.Get("/planning-entries", h.ListPlanningEntries)
		})
	})

	return r
}
