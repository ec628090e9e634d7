// Package moneyness classifies the call overlay by how far each contract
// sits in or out of the money against live underlying prices.
package moneyness

import (
	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

// Risk policy constants. A heavy ITM book means exercise risk, a heavy ATM
// book means gamma risk.
const (
	itmRiskHighThreshold   = 30.0
	atmRiskHighThreshold   = 20.0
	itmRiskMediumThreshold = 15.0
	atmRiskMediumThreshold = 10.0
)

// Analyzer computes moneyness records and rollups for the call sleeve.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a moneyness analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("service", "moneyness").Logger()}
}

// Analyze produces one Record per call whose underlying quote and strike
// resolve. Calls without a usable quote or strike are excluded from the
// aggregates but counted as unresolved for data-quality reporting; their
// market value still contributes to TotalCallValue.
func (a *Analyzer) Analyze(portfolio *holdings.Portfolio, quotes marketdata.QuoteMap) Analysis {
	analysis := Analysis{
		TotalCalls: len(portfolio.Calls),
		Categories: make(map[Category]CategoryRollup, len(Categories)),
	}
	for _, cat := range Categories {
		analysis.Categories[cat] = CategoryRollup{}
	}

	totalWeight := 0.0
	for _, call := range portfolio.Calls {
		analysis.TotalCallValue += call.MarketValue

		record, ok := a.resolve(call, quotes)
		if !ok {
			analysis.Unresolved++
			continue
		}

		analysis.Records = append(analysis.Records, record)

		rollup := analysis.Categories[record.Category]
		rollup.Count++
		rollup.TotalValue += call.MarketValue
		rollup.TotalWeight += call.Weight
		analysis.Categories[record.Category] = rollup

		analysis.WeightedMoneyness += record.MoneynessPercent * call.Weight
		if call.DaysToExpiry != nil {
			analysis.WeightedDaysToExpiry += float64(*call.DaysToExpiry) * call.Weight
		}
		totalWeight += call.Weight
	}

	if totalWeight > 0 {
		analysis.WeightedMoneyness /= totalWeight
		analysis.WeightedDaysToExpiry /= totalWeight
	}

	analysis.Risk = a.riskMetrics(analysis)

	a.log.Debug().
		Int("calls", analysis.TotalCalls).
		Int("unresolved", analysis.Unresolved).
		Float64("weighted_moneyness", analysis.WeightedMoneyness).
		Str("risk", string(analysis.Risk.OverallRisk)).
		Msg("Moneyness analysis complete")

	return analysis
}

// resolve computes the moneyness record for one call, reporting false when
// the strike or underlying quote cannot be resolved.
func (a *Analyzer) resolve(call holdings.Position, quotes marketdata.QuoteMap) (Record, bool) {
	if call.Underlying == "" || call.Strike == nil || *call.Strike <= 0 {
		return Record{}, false
	}
	quote, ok := quotes[call.Underlying]
	if !ok || quote.LastPrice <= 0 {
		return Record{}, false
	}

	moneyness := (quote.LastPrice/(*call.Strike) - 1) * 100

	return Record{
		Ticker:           call.Ticker,
		Underlying:       call.Underlying,
		UnderlyingPrice:  quote.LastPrice,
		Strike:           *call.Strike,
		MoneynessPercent: moneyness,
		Category:         Categorize(moneyness),
		DaysToExpiry:     call.DaysToExpiry,
		Weight:           call.Weight,
		MarketValue:      call.MarketValue,
	}, true
}

// riskMetrics derives the value-weighted risk scores and overall label.
func (a *Analyzer) riskMetrics(analysis Analysis) RiskMetrics {
	if analysis.TotalCallValue == 0 {
		return RiskMetrics{OverallRisk: RiskLow}
	}

	atmRisk := analysis.Categories[ATM].TotalValue / analysis.TotalCallValue * 100
	itmRisk := (analysis.Categories[ITM].TotalValue + analysis.Categories[DeepITM].TotalValue) /
		analysis.TotalCallValue * 100

	overall := RiskLow
	switch {
	case itmRisk > itmRiskHighThreshold || atmRisk > atmRiskHighThreshold:
		overall = RiskHigh
	case itmRisk > itmRiskMediumThreshold || atmRisk > atmRiskMediumThreshold:
		overall = RiskMedium
	}

	return RiskMetrics{
		ATMRisk:     atmRisk,
		ITMRisk:     itmRisk,
		OverallRisk: overall,
	}
}
