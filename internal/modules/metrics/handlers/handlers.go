// Package handlers provides HTTP handlers for weighted metrics operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/metrics"
	"github.com/aristath/navcast/internal/services"
)

// Handler handles metrics HTTP requests
type Handler struct {
	aggregator *metrics.Aggregator
	state      *services.StateService
	log        zerolog.Logger
}

// NewHandler creates a new metrics handler
func NewHandler(aggregator *metrics.Aggregator, state *services.StateService, log zerolog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		state:      state,
		log:        log.With().Str("handler", "metrics").Logger(),
	}
}

// HandleGetWeighted handles GET /api/metrics/weighted
func (h *Handler) HandleGetWeighted(w http.ResponseWriter, r *http.Request) {
	portfolio, quotes := h.state.Snapshot()
	if portfolio == nil {
		http.Error(w, "Holdings not loaded", http.StatusNotFound)
		return
	}
	if quotes == nil {
		http.Error(w, "Market data not loaded", http.StatusNotFound)
		return
	}

	weighted, ok := h.aggregator.Aggregate(portfolio, quotes)
	if !ok {
		http.Error(w, "No stock positions matched market data", http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": weighted,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSleeves handles GET /api/metrics/sleeves
func (h *Handler) HandleGetSleeves(w http.ResponseWriter, r *http.Request) {
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
		"data": h.aggregator.SleeveAverageIVs(portfolio, quotes),
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
