package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all account routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/resolve", h.HandleResolve)
		r.Delete("/{id}", h.HandleDelete)
		r.Get("/{id}/stats", h.HandleStats)
	})
}
