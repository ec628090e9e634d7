package nowcast

import (
	"errors"
	"time"
)

// vegaSlope is the overlay's P&L sensitivity per unit of short-tenor IV
// change per 100 vol points. Negative because the overlay is structurally
// short volatility.
const vegaSlope = -0.0554

// Defaults for the run configuration.
const (
	DefaultProjectionDays    = 1.0
	DefaultNumSimulations    = 1000
	DefaultConfidenceLevel   = 90.0
	DefaultCorrelationFactor = 0.7
	DefaultVegaCoverage      = 0.248 // fraction of notional under the short-vega overlay
	DefaultTermFactor        = 0.92  // scales 30-day IV change to the overlay's shorter tenor
)

// Precondition and guard errors. Handlers map these to user-facing statuses.
var (
	ErrMissingHoldings     = errors.New("holdings data not loaded")
	ErrMissingMarketData   = errors.New("market data not loaded")
	ErrNoSharesOutstanding = errors.New("shares outstanding not positive, NAV undefined")
	ErrRunInProgress       = errors.New("nowcast calculation already in progress")
)

// Config is the nowcast run configuration. Every field is optional; zero
// values take the stated defaults. Pointer fields distinguish "absent" from
// an explicit zero: a zero market-move override pins the basket return to
// zero rather than being ignored.
type Config struct {
	ProjectionDays            float64  `json:"projection_days,omitempty"`
	MarketMoveOverridePercent *float64 `json:"market_move_override_percent,omitempty"`
	ImpliedVolOverride        *float64 `json:"implied_vol_override,omitempty"`
	NumSimulations            int      `json:"num_simulations,omitempty"`
	ConfidenceLevel           float64  `json:"confidence_level,omitempty"`
	CorrelationFactor         float64  `json:"correlation_factor,omitempty"`
	EffectiveVegaCoverage     float64  `json:"effective_vega_coverage,omitempty"`
	TermStructureFactor       float64  `json:"term_structure_factor,omitempty"`
	SpotPrice                 *float64 `json:"spot_price,omitempty"` // defaults to current NAV
	DividendAmount            float64  `json:"dividend_amount,omitempty"`
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.ProjectionDays <= 0 {
		c.ProjectionDays = DefaultProjectionDays
	}
	if c.NumSimulations <= 0 {
		c.NumSimulations = DefaultNumSimulations
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 100 {
		c.ConfidenceLevel = DefaultConfidenceLevel
	}
	if c.CorrelationFactor <= 0 {
		c.CorrelationFactor = DefaultCorrelationFactor
	}
	if c.EffectiveVegaCoverage <= 0 {
		c.EffectiveVegaCoverage = DefaultVegaCoverage
	}
	if c.TermStructureFactor <= 0 {
		c.TermStructureFactor = DefaultTermFactor
	}
	return c
}

// SimulationSummary is the Monte Carlo part of a result.
type SimulationSummary struct {
	NumSimulations          int     `json:"num_simulations"`
	ConfidenceLevel         float64 `json:"confidence_level"`
	LowerBound              float64 `json:"lower_bound"`
	UpperBound              float64 `json:"upper_bound"`
	Mean                    float64 `json:"mean"`
	Median                  float64 `json:"median"`
	StdDev                  float64 `json:"std_dev"`
	ValueAtRisk5            float64 `json:"value_at_risk_5"`
	ProbabilityAboveCurrent float64 `json:"probability_above_current"`
}

// Result is an immutable snapshot of one nowcast run, including the
// intermediate weighted metrics so the presentation layer never recomputes.
type Result struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	CurrentNAV        float64 `json:"current_nav"`
	BasketReturn      float64 `json:"basket_return"` // decimal
	TotalEquityWeight float64 `json:"total_equity_weight"`
	WeightedIV30      float64 `json:"weighted_iv30"`      // percent
	WeightedIVChange  float64 `json:"weighted_iv_change"` // percent

	NAVPriceOnly float64 `json:"nav_price_only"`

	DeltaIV7        float64 `json:"delta_iv7"` // decimal vol points
	VegaPnL         float64 `json:"vega_pnl"`
	AdjustedVegaPnL float64 `json:"adjusted_vega_pnl"`
	NAVWithVega     float64 `json:"nav_with_vega"`

	SpotPrice              float64 `json:"spot_price"`
	PremiumDiscountPercent float64 `json:"premium_discount_percent"`

	DividendAmount   float64 `json:"dividend_amount"`
	ExDivNAV         float64 `json:"ex_div_nav"`
	ImpliedExDivOpen float64 `json:"implied_ex_div_open"`

	Simulation SimulationSummary `json:"simulation"`
}
