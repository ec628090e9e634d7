// Package handlers provides HTTP handlers for nowcast runs.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/nowcast"
	"github.com/aristath/navcast/internal/services"
)

// Handler handles nowcast HTTP requests
type Handler struct {
	engine *nowcast.Engine
	state  *services.StateService
	log    zerolog.Logger
}

// NewHandler creates a new nowcast handler
func NewHandler(engine *nowcast.Engine, state *services.StateService, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		state:  state,
		log:    log.With().Str("handler", "nowcast").Logger(),
	}
}

// HandleRun handles POST /api/nowcast. The body is an optional run
// configuration; an empty body runs with defaults.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var cfg nowcast.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn().Err(err).Msg("Failed to decode nowcast config")
		http.Error(w, "Invalid nowcast configuration", http.StatusBadRequest)
		return
	}

	portfolio, quotes := h.state.Snapshot()
	result, err := h.engine.Run(portfolio, quotes, cfg)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, nowcast.ErrRunInProgress):
			status = http.StatusConflict
		case errors.Is(err, nowcast.ErrMissingHoldings), errors.Is(err, nowcast.ErrMissingMarketData):
			status = http.StatusPreconditionFailed
		case errors.Is(err, nowcast.ErrNoSharesOutstanding):
			status = http.StatusUnprocessableEntity
		}
		h.log.Error().Err(err).Msg("Nowcast run failed")
		http.Error(w, err.Error(), status)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
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
