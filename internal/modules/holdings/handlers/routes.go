package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all holdings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holdings", func(r chi.Router) {
		r.Get("/", h.HandleGetPositions)
		r.Post("/", h.HandleLoad)
		r.Post("/reload", h.HandleReload)
		r.Get("/summary", h.HandleGetSummary)
	})
}
