package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all contract routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/commission", h.HandleCommission)
		r.Get("/{symbol}", h.HandleGetContract)
	})
}
