// Package nowcast estimates the fund's current NAV between official
// publications: equity price moves, a short-vega overlay adjustment,
// premium/discount versus the traded price, an ex-dividend adjustment, and
// Monte Carlo confidence bands around the estimate.
package nowcast

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

// Engine runs the valuation. It is stateless between runs except for the
// re-entrancy guard: overlapping invocations are rejected, not queued.
type Engine struct {
	log        zerolog.Logger
	normals    NormalSource
	cashSymbol string
	running    atomic.Bool
}

// NewEngine creates an engine with a clock-seeded random source. cashSymbol
// is the cash-equivalent ticker excluded from the basket computation.
func NewEngine(cashSymbol string, log zerolog.Logger) *Engine {
	return &Engine{
		log:        log.With().Str("service", "nowcast").Logger(),
		normals:    newDefaultSource(),
		cashSymbol: cashSymbol,
	}
}

// WithNormalSource replaces the simulation's random source. Tests inject a
// seeded source here.
func (e *Engine) WithNormalSource(src NormalSource) *Engine {
	e.normals = src
	return e
}

// Run executes one nowcast. Both snapshots must be present and shares
// outstanding must be positive; anything unexpected inside the calculation
// is recovered and reported as a calculation failure instead of crashing
// the caller.
func (e *Engine) Run(portfolio *holdings.Portfolio, quotes marketdata.QuoteMap, cfg Config) (result *Result, err error) {
	if !e.running.CompareAndSwap(false, true) {
		e.log.Warn().Msg("Nowcast invocation rejected, run already in progress")
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)

	if portfolio == nil || len(portfolio.Positions) == 0 {
		return nil, ErrMissingHoldings
	}
	if len(quotes) == 0 {
		return nil, ErrMissingMarketData
	}
	currentNAV, ok := portfolio.CurrentNAV()
	if !ok {
		return nil, ErrNoSharesOutstanding
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("Nowcast calculation panicked")
			result = nil
			err = fmt.Errorf("nowcast calculation failed: %v", r)
		}
	}()

	cfg = cfg.withDefaults()
	result = e.compute(portfolio, quotes, cfg, currentNAV)

	e.log.Info().
		Str("run_id", result.RunID).
		Float64("current_nav", result.CurrentNAV).
		Float64("nav_with_vega", result.NAVWithVega).
		Float64("premium_pct", result.PremiumDiscountPercent).
		Msg("Nowcast complete")

	return result, nil
}

func (e *Engine) compute(portfolio *holdings.Portfolio, quotes marketdata.QuoteMap, cfg Config, currentNAV float64) *Result {
	// Step 1: price-only move of the equity sleeve. With an override the
	// per-position quote data is ignored entirely; the weighted IV
	// accumulators then stay at zero, exactly like the basket loop they
	// belong to.
	basketReturn := 0.0
	totalEquityWeight := 0.0
	weightedIV30 := 0.0
	weightedIVChange := 0.0

	if cfg.MarketMoveOverridePercent != nil {
		basketReturn = *cfg.MarketMoveOverridePercent / 100
		e.log.Debug().Float64("override_pct", *cfg.MarketMoveOverridePercent).Msg("Using market move override")
	} else {
		for _, pos := range portfolio.Stocks {
			if pos.Ticker == e.cashSymbol || strings.Contains(pos.Ticker, "MM") {
				continue
			}
			quote, ok := quotes[pos.Ticker]
			if !ok {
				continue
			}

			// Weight is percent-of-fund applied to a percent return,
			// hence the double division.
			returnPct := quote.ChangePercent / 100
			basketReturn += pos.Weight * returnPct / 100
			totalEquityWeight += pos.Weight

			weightedIV30 += pos.Weight * quote.IV30
			weightedIVChange += pos.Weight * quote.IVChange
		}
	}

	// Step 2: implied-vol override replaces the accumulated IV change,
	// keeping the weight-normalization convention used below.
	if cfg.ImpliedVolOverride != nil && totalEquityWeight > 0 {
		currentIV := weightedIV30 / totalEquityWeight
		if currentIV != 0 {
			weightedIVChange = (*cfg.ImpliedVolOverride - currentIV) / currentIV * 100 * totalEquityWeight
			e.log.Debug().Float64("iv_override", *cfg.ImpliedVolOverride).Msg("Using implied vol override")
		}
	}

	// Step 3: normalize the weighted accumulators.
	if totalEquityWeight > 0 {
		weightedIV30 /= totalEquityWeight
		weightedIVChange /= totalEquityWeight
	}

	// Step 4: price-only NAV.
	navPriceOnly := currentNAV * (1 + basketReturn)

	// Step 5: vega adjustment. The 30-day IV change is scaled down to the
	// overlay's effective tenor, then through the fixed short-vega slope
	// and the covered fraction of notional.
	deltaIV7 := (weightedIV30 / 100) * (weightedIVChange / 100) * cfg.TermStructureFactor
	vegaPnL := vegaSlope * deltaIV7
	adjustedVegaPnL := cfg.EffectiveVegaCoverage * vegaPnL
	navWithVega := navPriceOnly * (1 + adjustedVegaPnL)

	// Step 6: premium/discount against the traded price.
	spotPrice := currentNAV
	if cfg.SpotPrice != nil {
		spotPrice = *cfg.SpotPrice
	}
	premiumPercent := (spotPrice/navWithVega - 1) * 100

	// Step 7: ex-dividend adjustment, carrying the pre-dividend
	// premium/discount onto the ex-dividend base.
	exDivNAV := navWithVega
	impliedExDivOpen := spotPrice
	if cfg.DividendAmount > 0 {
		exDivNAV = navWithVega - cfg.DividendAmount
		impliedExDivOpen = exDivNAV * (1 + premiumPercent/100)
	}

	sim := simulate(e.normals, navWithVega, currentNAV, weightedIV30, cfg)

	return &Result{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now(),

		CurrentNAV:        currentNAV,
		BasketReturn:      basketReturn,
		TotalEquityWeight: totalEquityWeight,
		WeightedIV30:      weightedIV30,
		WeightedIVChange:  weightedIVChange,

		NAVPriceOnly: navPriceOnly,

		DeltaIV7:        deltaIV7,
		VegaPnL:         vegaPnL,
		AdjustedVegaPnL: adjustedVegaPnL,
		NAVWithVega:     navWithVega,

		SpotPrice:              spotPrice,
		PremiumDiscountPercent: premiumPercent,

		DividendAmount:   cfg.DividendAmount,
		ExDivNAV:         exDivNAV,
		ImpliedExDivOpen: impliedExDivOpen,

		Simulation: sim,
	}
}
