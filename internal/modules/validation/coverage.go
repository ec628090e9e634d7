// Package validation reports how well the market-data extract covers the
// holdings extract. Gaps are surfaced as statistics, not failures; the
// nowcast still runs on partial coverage.
package validation

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

// SymbolStatus describes one stock position's coverage.
type SymbolStatus struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
	MarketValue float64 `json:"market_value,omitempty"`
	Reason      string  `json:"reason,omitempty"` // set for ignored symbols
}

// Coverage is the result of one validation pass over the stock sleeve.
type Coverage struct {
	TotalStocks           int            `json:"total_stocks"`
	Matched               int            `json:"matched"`
	Missing               int            `json:"missing"`
	Ignored               int            `json:"ignored"`
	SymbolCoveragePercent float64        `json:"symbol_coverage_percent"`
	WeightCoveragePercent float64        `json:"weight_coverage_percent"`
	MatchedSymbols        []SymbolStatus `json:"matched_symbols"`
	MissingSymbols        []SymbolStatus `json:"missing_symbols"`
	IgnoredSymbols        []SymbolStatus `json:"ignored_symbols"`
}

// Validator checks holdings/market-data coverage.
type Validator struct {
	log        zerolog.Logger
	cashSymbol string
}

// NewValidator creates a validator. cashSymbol is skipped the same way the
// aggregator skips it.
func NewValidator(cashSymbol string, log zerolog.Logger) *Validator {
	return &Validator{
		log:        log.With().Str("service", "validation").Logger(),
		cashSymbol: cashSymbol,
	}
}

// Check computes coverage of the stock sleeve against the quote map.
func (v *Validator) Check(portfolio *holdings.Portfolio, quotes marketdata.QuoteMap) Coverage {
	cov := Coverage{}

	for _, pos := range portfolio.Stocks {
		if pos.Ticker == v.cashSymbol || pos.Ticker == "Cash&Other" || strings.Contains(pos.Ticker, "MM") {
			cov.IgnoredSymbols = append(cov.IgnoredSymbols, SymbolStatus{
				Symbol: pos.Ticker,
				Name:   pos.Name,
				Reason: "Cash/Money Market",
			})
			continue
		}

		status := SymbolStatus{
			Symbol:      pos.Ticker,
			Name:        pos.Name,
			Weight:      pos.Weight,
			MarketValue: pos.MarketValue,
		}
		if _, ok := quotes[pos.Ticker]; ok {
			cov.MatchedSymbols = append(cov.MatchedSymbols, status)
		} else {
			cov.MissingSymbols = append(cov.MissingSymbols, status)
		}
	}

	cov.Matched = len(cov.MatchedSymbols)
	cov.Missing = len(cov.MissingSymbols)
	cov.Ignored = len(cov.IgnoredSymbols)
	cov.TotalStocks = cov.Matched + cov.Missing

	if cov.TotalStocks > 0 {
		cov.SymbolCoveragePercent = float64(cov.Matched) / float64(cov.TotalStocks) * 100
	}

	totalWeight := 0.0
	coveredWeight := 0.0
	for _, s := range cov.MatchedSymbols {
		totalWeight += s.Weight
		coveredWeight += s.Weight
	}
	for _, s := range cov.MissingSymbols {
		totalWeight += s.Weight
	}
	if totalWeight > 0 {
		cov.WeightCoveragePercent = coveredWeight / totalWeight * 100
	}

	if cov.Missing > 0 {
		v.log.Warn().
			Int("missing", cov.Missing).
			Float64("weight_coverage", cov.WeightCoveragePercent).
			Msg("Holdings positions without market data")
	}

	return cov
}
