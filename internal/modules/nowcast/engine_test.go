package nowcast

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

func testEngine() *Engine {
	return NewEngine("FGXXX", zerolog.Nop()).WithNormalSource(NewSeededSource(42))
}

// testPortfolio is a single-stock fund: $1B net assets over 164M shares,
// with half the fund in one equity position.
func testPortfolio() *holdings.Portfolio {
	return &holdings.Portfolio{
		Positions: []holdings.Position{
			{Ticker: "NVDA", Kind: holdings.KindStock, Weight: 50.0},
		},
		Stocks: []holdings.Position{
			{Ticker: "NVDA", Kind: holdings.KindStock, Weight: 50.0},
		},
		NetAssets:         1e9,
		SharesOutstanding: 164e6,
	}
}

func testQuotes() marketdata.QuoteMap {
	return marketdata.QuoteMap{
		"NVDA": {Symbol: "NVDA", LastPrice: 180.0, ChangePercent: 1.0, IV30: 40.0, IVChange: 5.0},
	}
}

func TestRunEndToEnd(t *testing.T) {
	result, err := testEngine().Run(testPortfolio(), testQuotes(), Config{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.InDelta(t, 6.09756, result.CurrentNAV, 1e-4)

	// 50% weight times a +1.0% move.
	assert.InDelta(t, 0.005, result.BasketReturn, 1e-12)
	assert.InDelta(t, 50.0, result.TotalEquityWeight, 1e-9)
	assert.InDelta(t, 40.0, result.WeightedIV30, 1e-9)
	assert.InDelta(t, 5.0, result.WeightedIVChange, 1e-9)

	assert.InDelta(t, result.CurrentNAV*1.005, result.NAVPriceOnly, 1e-9)

	// (40/100) * (5/100) * 0.92
	assert.InDelta(t, 0.0184, result.DeltaIV7, 1e-12)
	assert.InDelta(t, -0.0554*0.0184, result.VegaPnL, 1e-12)
	assert.InDelta(t, -0.000252801, result.AdjustedVegaPnL, 1e-8)
	assert.InDelta(t, result.NAVPriceOnly*(1+result.AdjustedVegaPnL), result.NAVWithVega, 1e-12)

	// Spot defaults to the current NAV.
	assert.InDelta(t, result.CurrentNAV, result.SpotPrice, 1e-12)
	assert.InDelta(t, (result.SpotPrice/result.NAVWithVega-1)*100, result.PremiumDiscountPercent, 1e-12)

	// No dividend: ex-div figures mirror the headline numbers.
	assert.InDelta(t, result.NAVWithVega, result.ExDivNAV, 1e-12)
	assert.InDelta(t, result.SpotPrice, result.ImpliedExDivOpen, 1e-12)

	assert.Equal(t, DefaultNumSimulations, result.Simulation.NumSimulations)
	assert.InDelta(t, DefaultConfidenceLevel, result.Simulation.ConfidenceLevel, 1e-9)
	assert.LessOrEqual(t, result.Simulation.LowerBound, result.Simulation.UpperBound)
}

func TestRunCashExcludedFromBasket(t *testing.T) {
	portfolio := testPortfolio()
	portfolio.Stocks = append(portfolio.Stocks,
		holdings.Position{Ticker: "FGXXX", Kind: holdings.KindStock, Weight: 30.0},
		holdings.Position{Ticker: "GOVMM", Kind: holdings.KindStock, Weight: 10.0},
	)
	quotes := testQuotes()
	quotes["FGXXX"] = marketdata.Quote{Symbol: "FGXXX", ChangePercent: 9.0, IV30: 1.0}
	quotes["GOVMM"] = marketdata.Quote{Symbol: "GOVMM", ChangePercent: 9.0, IV30: 1.0}

	result, err := testEngine().Run(portfolio, quotes, Config{})
	require.NoError(t, err)

	assert.InDelta(t, 0.005, result.BasketReturn, 1e-12)
	assert.InDelta(t, 50.0, result.TotalEquityWeight, 1e-9)
}

func TestRunUnquotedPositionSkipped(t *testing.T) {
	portfolio := testPortfolio()
	portfolio.Stocks = append(portfolio.Stocks,
		holdings.Position{Ticker: "PRIVATECO", Kind: holdings.KindStock, Weight: 25.0},
	)

	result, err := testEngine().Run(portfolio, testQuotes(), Config{})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, result.TotalEquityWeight, 1e-9)
}

func TestRunMarketMoveOverride(t *testing.T) {
	override := 2.0
	result, err := testEngine().Run(testPortfolio(), testQuotes(), Config{
		MarketMoveOverridePercent: &override,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.02, result.BasketReturn, 1e-12)
	// The per-position loop is skipped entirely, so no IV accumulates and
	// the vega leg is inert.
	assert.Zero(t, result.TotalEquityWeight)
	assert.Zero(t, result.WeightedIV30)
	assert.Zero(t, result.DeltaIV7)
	assert.InDelta(t, result.NAVPriceOnly, result.NAVWithVega, 1e-12)
}

func TestRunZeroOverridePinsBasket(t *testing.T) {
	override := 0.0
	result, err := testEngine().Run(testPortfolio(), testQuotes(), Config{
		MarketMoveOverridePercent: &override,
	})
	require.NoError(t, err)

	assert.Zero(t, result.BasketReturn)
	assert.InDelta(t, result.CurrentNAV, result.NAVPriceOnly, 1e-12)
}

func TestRunImpliedVolOverride(t *testing.T) {
	override := 44.0
	result, err := testEngine().Run(testPortfolio(), testQuotes(), Config{
		ImpliedVolOverride: &override,
	})
	require.NoError(t, err)

	// Weighted IV is 40; an override to 44 is a +10% change.
	assert.InDelta(t, 40.0, result.WeightedIV30, 1e-9)
	assert.InDelta(t, 10.0, result.WeightedIVChange, 1e-9)
	assert.InDelta(t, (40.0/100)*(10.0/100)*DefaultTermFactor, result.DeltaIV7, 1e-12)
}

func TestRunVegaSignMonotonic(t *testing.T) {
	engine := testEngine()

	up, err := engine.Run(testPortfolio(), testQuotes(), Config{})
	require.NoError(t, err)

	quotesDown := testQuotes()
	q := quotesDown["NVDA"]
	q.IVChange = -5.0
	quotesDown["NVDA"] = q

	down, err := engine.Run(testPortfolio(), quotesDown, Config{})
	require.NoError(t, err)

	// Short vega: rising IV drags the estimate below price-only, falling IV
	// lifts it.
	assert.Less(t, up.NAVWithVega, up.NAVPriceOnly)
	assert.Greater(t, down.NAVWithVega, down.NAVPriceOnly)
}

func TestRunSpotPriceAndDividend(t *testing.T) {
	spot := 6.25
	result, err := testEngine().Run(testPortfolio(), testQuotes(), Config{
		SpotPrice:      &spot,
		DividendAmount: 0.50,
	})
	require.NoError(t, err)

	assert.InDelta(t, 6.25, result.SpotPrice, 1e-12)
	assert.InDelta(t, (6.25/result.NAVWithVega-1)*100, result.PremiumDiscountPercent, 1e-12)
	assert.InDelta(t, result.NAVWithVega-0.50, result.ExDivNAV, 1e-12)
	// The pre-dividend premium carries onto the ex-div base.
	assert.InDelta(t, result.ExDivNAV*(1+result.PremiumDiscountPercent/100), result.ImpliedExDivOpen, 1e-12)
}

func TestRunDeterministicWithSeed(t *testing.T) {
	a, err := NewEngine("FGXXX", zerolog.Nop()).
		WithNormalSource(NewSeededSource(7)).
		Run(testPortfolio(), testQuotes(), Config{})
	require.NoError(t, err)

	b, err := NewEngine("FGXXX", zerolog.Nop()).
		WithNormalSource(NewSeededSource(7)).
		Run(testPortfolio(), testQuotes(), Config{})
	require.NoError(t, err)

	assert.Equal(t, a.Simulation, b.Simulation)
	assert.InDelta(t, a.NAVWithVega, b.NAVWithVega, 1e-15)
}

func TestRunPreconditions(t *testing.T) {
	engine := testEngine()

	t.Run("nil portfolio", func(t *testing.T) {
		_, err := engine.Run(nil, testQuotes(), Config{})
		assert.ErrorIs(t, err, ErrMissingHoldings)
	})

	t.Run("empty portfolio", func(t *testing.T) {
		_, err := engine.Run(&holdings.Portfolio{}, testQuotes(), Config{})
		assert.ErrorIs(t, err, ErrMissingHoldings)
	})

	t.Run("missing market data", func(t *testing.T) {
		_, err := engine.Run(testPortfolio(), nil, Config{})
		assert.ErrorIs(t, err, ErrMissingMarketData)
	})

	t.Run("no shares outstanding", func(t *testing.T) {
		portfolio := testPortfolio()
		portfolio.SharesOutstanding = 0
		_, err := engine.Run(portfolio, testQuotes(), Config{})
		assert.ErrorIs(t, err, ErrNoSharesOutstanding)
	})
}

func TestRunRejectsConcurrentInvocation(t *testing.T) {
	engine := testEngine()
	engine.running.Store(true)

	_, err := engine.Run(testPortfolio(), testQuotes(), Config{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	// Guard released by the in-flight run, not the rejected one.
	engine.running.Store(false)
	_, err = engine.Run(testPortfolio(), testQuotes(), Config{})
	assert.NoError(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.InDelta(t, DefaultProjectionDays, cfg.ProjectionDays, 1e-12)
	assert.Equal(t, DefaultNumSimulations, cfg.NumSimulations)
	assert.InDelta(t, DefaultConfidenceLevel, cfg.ConfidenceLevel, 1e-12)
	assert.InDelta(t, DefaultCorrelationFactor, cfg.CorrelationFactor, 1e-12)
	assert.InDelta(t, DefaultVegaCoverage, cfg.EffectiveVegaCoverage, 1e-12)
	assert.InDelta(t, DefaultTermFactor, cfg.TermStructureFactor, 1e-12)
}

func TestConfigDefaultsKeepExplicitValues(t *testing.T) {
	cfg := Config{
		ProjectionDays:  5,
		NumSimulations:  200,
		ConfidenceLevel: 80,
	}.withDefaults()

	assert.InDelta(t, 5.0, cfg.ProjectionDays, 1e-12)
	assert.Equal(t, 200, cfg.NumSimulations)
	assert.InDelta(t, 80.0, cfg.ConfidenceLevel, 1e-12)
}

func TestRunSimulationCentersNearEstimate(t *testing.T) {
	result, err := testEngine().Run(testPortfolio(), testQuotes(), Config{
		NumSimulations: 5000,
	})
	require.NoError(t, err)

	// Simulated returns are zero-mean around the vega-adjusted estimate.
	relErr := math.Abs(result.Simulation.Mean-result.NAVWithVega) / result.NAVWithVega
	assert.Less(t, relErr, 0.01)
	assert.GreaterOrEqual(t, result.Simulation.ProbabilityAboveCurrent, 0.0)
	assert.LessOrEqual(t, result.Simulation.ProbabilityAboveCurrent, 1.0)
}
