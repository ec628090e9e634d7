// Package handlers provides HTTP handlers for holdings operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/ingest"
	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/services"
)

// Handler handles holdings HTTP requests
type Handler struct {
	classifier *holdings.Classifier
	state      *services.StateService
	refresh    *services.RefreshService
	log        zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(
	classifier *holdings.Classifier,
	state *services.StateService,
	refresh *services.RefreshService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		classifier: classifier,
		state:      state,
		refresh:    refresh,
		log:        log.With().Str("handler", "holdings").Logger(),
	}
}

// HandleLoad handles POST /api/holdings. The body is a JSON array of the
// extract's rows, keyed by column header.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	var rows []ingest.Row
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.log.Warn().Err(err).Msg("Failed to decode holdings payload")
		http.Error(w, "Invalid holdings payload", http.StatusBadRequest)
		return
	}
	if len(rows) == 0 {
		http.Error(w, "Holdings payload is empty", http.StatusBadRequest)
		return
	}

	portfolio := h.classifier.Classify(rows)
	h.state.SetPortfolio(portfolio, "api")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": portfolio.Summarize(),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleReload handles POST /api/holdings/reload, re-ingesting the newest
// extract from the data directory.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.refresh.ReloadHoldings()
	if err != nil {
		h.log.Error().Err(err).Msg("Holdings reload failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": portfolio.Summarize(),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSummary handles GET /api/holdings/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	portfolio := h.state.Portfolio()
	if portfolio == nil {
		http.Error(w, "Holdings not loaded", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": portfolio.Summarize(),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetPositions handles GET /api/holdings
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	portfolio := h.state.Portfolio()
	if portfolio == nil {
		http.Error(w, "Holdings not loaded", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": portfolio.Positions,
		"metadata": map[string]interface{}{
			"count":     len(portfolio.Positions),
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
