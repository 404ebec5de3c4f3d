package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all PnL routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pnl", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate)
	})
}
