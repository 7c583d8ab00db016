package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk estimation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/var", h.HandleEstimateVaR)
		r.Post("/cvar", h.HandleEstimateCVaR)
		r.Post("/evar", h.HandleEstimateEVaR)
		r.Get("/estimates", h.HandleGetEstimates)
	})
}
