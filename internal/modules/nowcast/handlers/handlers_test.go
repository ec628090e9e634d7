package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
	"github.com/aristath/navcast/internal/modules/nowcast"
	"github.com/aristath/navcast/internal/services"
)

func newTestRouter(state *services.StateService) *chi.Mux {
	engine := nowcast.NewEngine("FGXXX", zerolog.Nop()).
		WithNormalSource(nowcast.NewSeededSource(1))
	handler := NewHandler(engine, state, zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return router
}

func loadedState() *services.StateService {
	state := services.NewStateService(zerolog.Nop())
	state.SetPortfolio(&holdings.Portfolio{
		Positions: []holdings.Position{
			{Ticker: "NVDA", Kind: holdings.KindStock, Weight: 50.0},
		},
		Stocks: []holdings.Position{
			{Ticker: "NVDA", Kind: holdings.KindStock, Weight: 50.0},
		},
		NetAssets:         1e9,
		SharesOutstanding: 164e6,
	}, "test")
	state.SetQuotes(marketdata.QuoteMap{
		"NVDA": {Symbol: "NVDA", LastPrice: 180.0, ChangePercent: 1.0, IV30: 40.0, IVChange: 5.0},
	}, "test")
	return state
}

func TestHandleRunEmptyBody(t *testing.T) {
	router := newTestRouter(loadedState())

	req := httptest.NewRequest(http.MethodPost, "/api/nowcast", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nav_with_vega")
	assert.Contains(t, rec.Body.String(), "run_id")
}

func TestHandleRunWithConfig(t *testing.T) {
	router := newTestRouter(loadedState())

	body := strings.NewReader(`{"market_move_override_percent": 2.0, "num_simulations": 100}`)
	req := httptest.NewRequest(http.MethodPost, "/api/nowcast", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"basket_return":0.02`)
}

func TestHandleRunInvalidBody(t *testing.T) {
	router := newTestRouter(loadedState())

	req := httptest.NewRequest(http.MethodPost, "/api/nowcast", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRunMissingData(t *testing.T) {
	router := newTestRouter(services.NewStateService(zerolog.Nop()))

	req := httptest.NewRequest(http.MethodPost, "/api/nowcast", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestHandleRunNoShares(t *testing.T) {
	state := loadedState()
	portfolio := state.Portfolio()
	portfolio.SharesOutstanding = 0
	state.SetPortfolio(portfolio, "test")
	router := newTestRouter(state)

	req := httptest.NewRequest(http.MethodPost, "/api/nowcast", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
