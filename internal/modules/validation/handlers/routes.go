package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all validation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/validation", func(r chi.Router) {
		r.Get("/coverage", h.HandleGetCoverage)
	})
}
