package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all nowcast routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/nowcast", h.HandleRun)
}
