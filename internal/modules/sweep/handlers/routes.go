package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all sweep routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sweep", func(r chi.Router) {
		r.Post("/run", h.HandleRunSweep)
		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{id}", h.HandleGetRun)
	})
}
