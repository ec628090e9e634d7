package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all moneyness routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/moneyness", h.HandleGetAnalysis)
}
