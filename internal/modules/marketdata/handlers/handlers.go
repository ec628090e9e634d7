// Package handlers provides HTTP handlers for market data operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/ingest"
	"github.com/aristath/navcast/internal/modules/marketdata"
	"github.com/aristath/navcast/internal/services"
)

// Handler handles market data HTTP requests
type Handler struct {
	normalizer *marketdata.Normalizer
	state      *services.StateService
	refresh    *services.RefreshService
	log        zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(
	normalizer *marketdata.Normalizer,
	state *services.StateService,
	refresh *services.RefreshService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		normalizer: normalizer,
		state:      state,
		refresh:    refresh,
		log:        log.With().Str("handler", "marketdata").Logger(),
	}
}

// HandleLoad handles POST /api/marketdata. The body is a JSON array of the
// extract's rows, keyed by column header.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	var rows []ingest.Row
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.log.Warn().Err(err).Msg("Failed to decode market data payload")
		http.Error(w, "Invalid market data payload", http.StatusBadRequest)
		return
	}
	if len(rows) == 0 {
		http.Error(w, "Market data payload is empty", http.StatusBadRequest)
		return
	}

	quotes := h.normalizer.Normalize(rows)
	h.state.SetQuotes(quotes, "api")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"quotes_loaded": len(quotes),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleReload handles POST /api/marketdata/reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.refresh.ReloadMarketData()
	if err != nil {
		h.log.Error().Err(err).Msg("Market data reload failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"quotes_loaded": len(quotes),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetQuotes handles GET /api/marketdata/quotes
func (h *Handler) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	quotes := h.state.Quotes()
	if quotes == nil {
		http.Error(w, "Market data not loaded", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": quotes,
		"metadata": map[string]interface{}{
			"count":     len(quotes),
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
