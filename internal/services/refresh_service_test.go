package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

func newRefreshFixture(t *testing.T) (*RefreshService, *StateService, string) {
	t.Helper()
	dir := t.TempDir()
	state := NewStateService(zerolog.Nop())
	refresh := NewRefreshService(
		dir,
		holdings.NewClassifier(zerolog.Nop()),
		marketdata.NewNormalizer(zerolog.Nop(), marketdata.DefaultNormalizerOptions()),
		state,
		zerolog.Nop(),
	)
	return refresh, state, dir
}

func writeExtract(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestReloadHoldings(t *testing.T) {
	refresh, state, dir := newRefreshFixture(t)
	writeExtract(t, dir, "ULTY_holdings_2025-08-29.csv",
		"StockTicker,MarketValue,NetAssets,SharesOutstanding\n"+
			"NVDA,1000,1000000,100000\n")

	portfolio, err := refresh.ReloadHoldings()
	require.NoError(t, err)
	assert.Len(t, portfolio.Positions, 1)
	assert.Equal(t, int64(100000), portfolio.SharesOutstanding)

	assert.Same(t, portfolio, state.Portfolio())
}

func TestReloadMarketData(t *testing.T) {
	refresh, state, dir := newRefreshFixture(t)
	writeExtract(t, dir, "marketdata_2025-08-29.csv",
		"Symbol,Last Price,% Chg,IV30 Last\n"+
			"NVDA,181.25,1.4,42.5\n")

	quotes, err := refresh.ReloadMarketData()
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.InDelta(t, 42.5, quotes["NVDA"].IV30, 1e-9)

	assert.Len(t, state.Quotes(), 1)
}

func TestReloadAllPartialFailure(t *testing.T) {
	refresh, state, dir := newRefreshFixture(t)
	writeExtract(t, dir, "ULTY_holdings_2025-08-29.csv",
		"StockTicker\nNVDA\n")

	// Market data extract missing: the holdings side still loads.
	err := refresh.ReloadAll()
	assert.Error(t, err)
	assert.NotNil(t, state.Portfolio())
	assert.Nil(t, state.Quotes())
}

func TestReloadMissingExtract(t *testing.T) {
	refresh, _, _ := newRefreshFixture(t)

	_, err := refresh.ReloadHoldings()
	assert.Error(t, err)
}
