package metrics

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

func stock(ticker string, weight float64) holdings.Position {
	return holdings.Position{
		Ticker:     ticker,
		Underlying: ticker,
		Kind:       holdings.KindStock,
		Weight:     weight,
	}
}

func call(underlying string, weight float64) holdings.Position {
	return holdings.Position{
		Ticker:     underlying + " 250815C00100000",
		Underlying: underlying,
		Kind:       holdings.KindCall,
		Weight:     weight,
	}
}

func TestAggregateWeightedMetrics(t *testing.T) {
	portfolio := &holdings.Portfolio{
		Stocks: []holdings.Position{
			stock("NVDA", 6.0),
			stock("TSLA", 4.0),
		},
	}
	quotes := marketdata.QuoteMap{
		"NVDA": {IV30: 40.0, ChangePercent: 1.0, Volatility20Day: 35.0, IVChange: 2.0},
		"TSLA": {IV30: 60.0, ChangePercent: -2.0, Volatility20Day: 55.0, IVChange: -4.0},
	}

	m, ok := NewAggregator("FGXXX", zerolog.Nop()).Aggregate(portfolio, quotes)
	require.True(t, ok)

	assert.Equal(t, 2, m.MatchedPositions)
	assert.InDelta(t, 10.0, m.TotalWeight, 1e-9)

	// (40*6 + 60*4) / 10 = 48
	assert.InDelta(t, 48.0, m.IV30, 1e-9)
	// (1*6 + -2*4) / 10 = -0.2
	assert.InDelta(t, -0.2, m.Change, 1e-9)
	// (35*6 + 55*4) / 10 = 43
	assert.InDelta(t, 43.0, m.Vol20Day, 1e-9)
	// (2*6 + -4*4) / 10 = -0.4
	assert.InDelta(t, -0.4, m.IVChange, 1e-9)

	assert.Equal(t, Range{Min: 40.0, Max: 60.0}, m.IV30Range)
	assert.Equal(t, Range{Min: -2.0, Max: 1.0}, m.ChangeRange)
	assert.Equal(t, Range{Min: 35.0, Max: 55.0}, m.Vol20Range)

	// Weighted means always land inside the observed bounds.
	assert.GreaterOrEqual(t, m.IV30, m.IV30Range.Min)
	assert.LessOrEqual(t, m.IV30, m.IV30Range.Max)
}

func TestAggregateExcludesCashLike(t *testing.T) {
	portfolio := &holdings.Portfolio{
		Stocks: []holdings.Position{
			stock("NVDA", 5.0),
			stock("FGXXX", 20.0),
			stock("GOVMM", 10.0),
		},
	}
	quotes := marketdata.QuoteMap{
		"NVDA":  {IV30: 40.0},
		"FGXXX": {IV30: 1.0},
		"GOVMM": {IV30: 1.0},
	}

	m, ok := NewAggregator("FGXXX", zerolog.Nop()).Aggregate(portfolio, quotes)
	require.True(t, ok)

	assert.Equal(t, 1, m.MatchedPositions)
	assert.InDelta(t, 5.0, m.TotalWeight, 1e-9)
	assert.InDelta(t, 40.0, m.IV30, 1e-9)
}

func TestAggregateSkipsUnquotedPositions(t *testing.T) {
	portfolio := &holdings.Portfolio{
		Stocks: []holdings.Position{
			stock("NVDA", 5.0),
			stock("PRIVATECO", 3.0),
		},
	}
	quotes := marketdata.QuoteMap{"NVDA": {IV30: 40.0}}

	m, ok := NewAggregator("FGXXX", zerolog.Nop()).Aggregate(portfolio, quotes)
	require.True(t, ok)
	assert.Equal(t, 1, m.MatchedPositions)
}

func TestAggregateNoMatchedWeight(t *testing.T) {
	portfolio := &holdings.Portfolio{
		Stocks: []holdings.Position{stock("NVDA", 5.0)},
	}

	m, ok := NewAggregator("FGXXX", zerolog.Nop()).Aggregate(portfolio, marketdata.QuoteMap{})

	assert.False(t, ok)
	assert.Zero(t, m.MatchedPositions)
	assert.Zero(t, m.IV30)
}

func TestSleeveAverageIVs(t *testing.T) {
	portfolio := &holdings.Portfolio{
		Stocks: []holdings.Position{
			stock("NVDA", 6.0),
			stock("TSLA", 4.0),
		},
		Calls: []holdings.Position{
			call("NVDA", 2.0),
		},
	}
	quotes := marketdata.QuoteMap{
		"NVDA": {IV30: 40.0},
		"TSLA": {IV30: 60.0},
	}

	sleeves := NewAggregator("FGXXX", zerolog.Nop()).SleeveAverageIVs(portfolio, quotes)

	require.NotNil(t, sleeves.Stock)
	assert.InDelta(t, 48.0, *sleeves.Stock, 1e-9)

	// Calls resolve through the underlying's quote.
	require.NotNil(t, sleeves.Call)
	assert.InDelta(t, 40.0, *sleeves.Call, 1e-9)

	assert.Nil(t, sleeves.Put)
}
