// Package handlers provides HTTP handlers for moneyness analysis.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/moneyness"
	"github.com/aristath/navcast/internal/services"
)

// Handler handles moneyness HTTP requests
type Handler struct {
	analyzer *moneyness.Analyzer
	state    *services.StateService
	log      zerolog.Logger
}

// NewHandler creates a new moneyness handler
func NewHandler(analyzer *moneyness.Analyzer, state *services.StateService, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		state:    state,
		log:      log.With().Str("handler", "moneyness").Logger(),
	}
}

// HandleGetAnalysis handles GET /api/moneyness
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	portfolio, quotes := h.state.Snapshot()
	if portfolio == nil {
		http.Error(w, "Holdings not loaded", http.StatusNotFound)
		return
	}
	if quotes == nil {
		http.Error(w, "Market data not loaded", http.StatusNotFound)
		return
	}

	analysis := h.analyzer.Analyze(portfolio, quotes)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": analysis,
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
