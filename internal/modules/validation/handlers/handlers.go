// Package handlers provides HTTP handlers for coverage validation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/validation"
	"github.com/aristath/navcast/internal/services"
)

// Handler handles validation HTTP requests
type Handler struct {
	validator *validation.Validator
	state     *services.StateService
	log       zerolog.Logger
}

// NewHandler creates a new validation handler
func NewHandler(validator *validation.Validator, state *services.StateService, log zerolog.Logger) *Handler {
	return &Handler{
		validator: validator,
		state:     state,
		log:       log.With().Str("handler", "validation").Logger(),
	}
}

// HandleGetCoverage handles GET /api/validation/coverage
func (h *Handler) HandleGetCoverage(w http.ResponseWriter, r *http.Request) {
	portfolio, quotes := h.state.Snapshot()
	if portfolio == nil {
		http.Error(w, "Holdings not loaded", http.StatusNotFound)
		return
	}
	if quotes == nil {
		http.Error(w, "Market data not loaded", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": h.validator.Check(portfolio, quotes),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
