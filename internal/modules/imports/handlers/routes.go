package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers import routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Post("/", h.HandleImport)
	})
}
