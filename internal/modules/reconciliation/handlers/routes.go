package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers reconciliation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reconciliation", func(r chi.Router) {
		r.Get("/orphans", h.HandleCount)
		r.Post("/orphans", h.HandleRepair)
	})
}
