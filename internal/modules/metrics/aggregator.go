// Package metrics computes weighted exposure metrics across the equity
// sleeve of the fund.
package metrics

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
	"github.com/aristath/navcast/pkg/formulas"
)

// Range carries the min/max bounds observed for one metric.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// WeightedMetrics is the aggregator output. All values are in percent units.
type WeightedMetrics struct {
	IV30        float64 `json:"iv30"`
	Change      float64 `json:"change"`
	Vol20Day    float64 `json:"vol_20day"`
	IVChange    float64 `json:"iv_change"`
	IV30Range   Range   `json:"iv30_range"`
	ChangeRange Range   `json:"change_range"`
	Vol20Range  Range   `json:"vol_20day_range"`

	MatchedPositions int     `json:"matched_positions"`
	TotalWeight      float64 `json:"total_weight"`
}

// SleeveIVs carries weight-averaged implied volatility per sleeve. A nil
// value means the sleeve had no matched weight.
type SleeveIVs struct {
	Stock *float64 `json:"stock,omitempty"`
	Call  *float64 `json:"call,omitempty"`
	Put   *float64 `json:"put,omitempty"`
}

// Aggregator computes weighted metrics over the stock sleeve.
type Aggregator struct {
	log        zerolog.Logger
	cashSymbol string
}

// NewAggregator creates an aggregator. cashSymbol is the designated
// cash-equivalent ticker excluded from the equity sleeve.
func NewAggregator(cashSymbol string, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		log:        log.With().Str("service", "metrics").Logger(),
		cashSymbol: cashSymbol,
	}
}

// isCashLike reports whether a stock-sleeve ticker should be excluded from
// weighting (the designated cash symbol or a money-market marker).
func (a *Aggregator) isCashLike(ticker string) bool {
	return ticker == a.cashSymbol || strings.Contains(ticker, "MM")
}

// Aggregate computes the weighted metrics over stock positions with a
// matching quote. The second return is false when no weight matched; callers
// must check it before reading the metrics (no divide-by-zero, no NaN).
func (a *Aggregator) Aggregate(portfolio *holdings.Portfolio, quotes marketdata.QuoteMap) (WeightedMetrics, bool) {
	var (
		ivs, changes, vols, ivChanges, weights []float64
	)
	m := WeightedMetrics{}

	for _, pos := range portfolio.Stocks {
		if a.isCashLike(pos.Ticker) {
			continue
		}
		quote, ok := quotes[pos.Ticker]
		if !ok {
			continue
		}

		ivs = append(ivs, quote.IV30)
		changes = append(changes, quote.ChangePercent)
		vols = append(vols, quote.Volatility20Day)
		ivChanges = append(ivChanges, quote.IVChange)
		weights = append(weights, pos.Weight)
		m.TotalWeight += pos.Weight
	}

	m.MatchedPositions = len(weights)
	if m.TotalWeight <= 0 {
		a.log.Warn().Msg("No matched weight in equity sleeve, weighted metrics unavailable")
		return m, false
	}

	m.IV30 = formulas.WeightedMean(ivs, weights)
	m.Change = formulas.WeightedMean(changes, weights)
	m.Vol20Day = formulas.WeightedMean(vols, weights)
	m.IVChange = formulas.WeightedMean(ivChanges, weights)
	m.IV30Range = rangeOf(ivs)
	m.ChangeRange = rangeOf(changes)
	m.Vol20Range = rangeOf(vols)

	return m, true
}

// SleeveAverageIVs computes the weight-averaged IV for the stock, call and
// put sleeves. Options resolve quotes through their underlying.
func (a *Aggregator) SleeveAverageIVs(portfolio *holdings.Portfolio, quotes marketdata.QuoteMap) SleeveIVs {
	return SleeveIVs{
		Stock: sleeveIV(portfolio.Stocks, quotes, false),
		Call:  sleeveIV(portfolio.Calls, quotes, true),
		Put:   sleeveIV(portfolio.Puts, quotes, true),
	}
}

func sleeveIV(positions []holdings.Position, quotes marketdata.QuoteMap, byUnderlying bool) *float64 {
	var ivs, weights []float64
	for _, pos := range positions {
		symbol := pos.Ticker
		if byUnderlying {
			symbol = pos.Underlying
		}
		quote, ok := quotes[symbol]
		if !ok {
			continue
		}
		ivs = append(ivs, quote.IV30)
		weights = append(weights, pos.Weight)
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return nil
	}
	avg := formulas.WeightedMean(ivs, weights)
	return &avg
}

func rangeOf(values []float64) Range {
	r := Range{Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	return r
}
