package moneyness

// Category is a moneyness band. Bands are half-open (min, max] evaluated
// against moneyness percent, so exactly +2.00% is still ATM and +2.0001% is
// ITM.
type Category string

const (
	DeepOTM Category = "deep_otm" // (-inf, -10]
	OTM     Category = "otm"      // (-10, -2]
	ATM     Category = "atm"      // (-2, 2]
	ITM     Category = "itm"      // (2, 10]
	DeepITM Category = "deep_itm" // (10, +inf)
)

// Categories lists the bands in ascending moneyness order.
var Categories = []Category{DeepOTM, OTM, ATM, ITM, DeepITM}

// Categorize maps a moneyness percent to its band.
func Categorize(moneynessPercent float64) Category {
	switch {
	case moneynessPercent <= -10:
		return DeepOTM
	case moneynessPercent <= -2:
		return OTM
	case moneynessPercent <= 2:
		return ATM
	case moneynessPercent <= 10:
		return ITM
	default:
		return DeepITM
	}
}

// Record is the per-call moneyness result.
type Record struct {
	Ticker           string   `json:"ticker"`
	Underlying       string   `json:"underlying"`
	UnderlyingPrice  float64  `json:"underlying_price"`
	Strike           float64  `json:"strike"`
	MoneynessPercent float64  `json:"moneyness_percent"`
	Category         Category `json:"category"`
	DaysToExpiry     *int     `json:"days_to_expiry,omitempty"`
	Weight           float64  `json:"weight"`
	MarketValue      float64  `json:"market_value"`
}

// CategoryRollup aggregates one band.
type CategoryRollup struct {
	Count       int     `json:"count"`
	TotalValue  float64 `json:"total_value"`
	TotalWeight float64 `json:"total_weight"`
}

// RiskLevel is the overall call-overlay risk label.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskMetrics summarizes assignment/gamma risk of the call book. The
// thresholds behind OverallRisk are fixed policy constants, not
// configuration.
type RiskMetrics struct {
	ATMRisk     float64   `json:"atm_risk"` // ATM value share, percent
	ITMRisk     float64   `json:"itm_risk"` // ITM + deep-ITM value share, percent
	OverallRisk RiskLevel `json:"overall_risk"`
}

// Analysis is the full moneyness output for the call sleeve.
type Analysis struct {
	TotalCalls           int                         `json:"total_calls"`
	Unresolved           int                         `json:"unresolved"`
	TotalCallValue       float64                     `json:"total_call_value"`
	WeightedMoneyness    float64                     `json:"weighted_moneyness"`
	WeightedDaysToExpiry float64                     `json:"weighted_days_to_expiry"`
	Records              []Record                    `json:"records"`
	Categories           map[Category]CategoryRollup `json:"categories"`
	Risk                 RiskMetrics                 `json:"risk"`
}
