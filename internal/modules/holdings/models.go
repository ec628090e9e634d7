package holdings

import "time"

// Kind is the position classification. Assigned exactly once by the
// classifier and never re-derived afterwards.
type Kind string

const (
	KindStock Kind = "stock"
	KindCall  Kind = "call"
	KindPut   Kind = "put"
	KindCash  Kind = "cash"
)

// Certainty records which classification rule produced a position's kind,
// so downstream consumers can tell a symbol parsed from the standard OCC
// format apart from one inferred by a fallback heuristic.
type Certainty string

const (
	// CertaintyOCC means the ticker matched the strict OCC option pattern.
	CertaintyOCC Certainty = "occ"
	// CertaintyOCCLoose means the ticker matched the relaxed OCC pattern
	// (flexible whitespace, 5-8 digit strike field).
	CertaintyOCCLoose Certainty = "occ_loose"
	// CertaintyName means the kind was inferred from the security name text.
	CertaintyName Certainty = "name"
	// CertaintyMarker means cash/money-market markers matched.
	CertaintyMarker Certainty = "marker"
	// CertaintyDefault means nothing matched and the position fell through
	// to the conservative stock default.
	CertaintyDefault Certainty = "default"
)

// Position is one classified holdings row.
type Position struct {
	Ticker      string    `json:"ticker"`
	CUSIP       string    `json:"cusip,omitempty"`
	Name        string    `json:"name"`
	Underlying  string    `json:"underlying"`
	Kind        Kind      `json:"kind"`
	Certainty   Certainty `json:"certainty"`
	Shares      float64   `json:"shares"`
	Price       float64   `json:"price"`
	MarketValue float64   `json:"market_value"`
	Weight      float64   `json:"weight"` // percent of fund net assets

	// Option-only fields; nil/zero for stock and cash positions.
	Strike       *float64   `json:"strike,omitempty"`
	Expiration   *time.Time `json:"expiration,omitempty"`
	DaysToExpiry *int       `json:"days_to_expiry,omitempty"` // negative for expired contracts
}

// Portfolio is a classified holdings snapshot. Each Position appears in
// Positions and in exactly one of the four partitions. The whole snapshot is
// replaced wholesale on each ingestion.
type Portfolio struct {
	Positions []Position `json:"positions"`
	Stocks    []Position `json:"stocks"`
	Calls     []Position `json:"calls"`
	Puts      []Position `json:"puts"`
	Cash      []Position `json:"cash"`

	TotalValue        float64 `json:"total_value"`
	NetAssets         float64 `json:"net_assets"`
	SharesOutstanding int64   `json:"shares_outstanding"`
}

// CurrentNAV returns net assets per share. The second return is false when
// shares outstanding is not positive, in which case NAV (and the nowcast)
// is undefined.
func (p *Portfolio) CurrentNAV() (float64, bool) {
	if p.SharesOutstanding <= 0 {
		return 0, false
	}
	return p.NetAssets / float64(p.SharesOutstanding), true
}

// Summary describes the portfolio partitions for presentation without
// recomputation.
type Summary struct {
	TotalPositions    int     `json:"total_positions"`
	NetAssets         float64 `json:"net_assets"`
	SharesOutstanding int64   `json:"shares_outstanding"`
	CurrentNAV        float64 `json:"current_nav"`
	NAVAvailable      bool    `json:"nav_available"`
	TotalValue        float64 `json:"total_value"`

	StockCount int     `json:"stock_count"`
	StockValue float64 `json:"stock_value"`
	CallCount  int     `json:"call_count"`
	CallValue  float64 `json:"call_value"`
	PutCount   int     `json:"put_count"`
	PutValue   float64 `json:"put_value"`
	CashCount  int     `json:"cash_count"`
	CashValue  float64 `json:"cash_value"`
}

// Summarize rolls the portfolio up into a Summary.
func (p *Portfolio) Summarize() Summary {
	s := Summary{
		TotalPositions:    len(p.Positions),
		NetAssets:         p.NetAssets,
		SharesOutstanding: p.SharesOutstanding,
		TotalValue:        p.TotalValue,
		StockCount:        len(p.Stocks),
		CallCount:         len(p.Calls),
		PutCount:          len(p.Puts),
		CashCount:         len(p.Cash),
	}
	s.CurrentNAV, s.NAVAvailable = p.CurrentNAV()
	for _, pos := range p.Stocks {
		s.StockValue += pos.MarketValue
	}
	for _, pos := range p.Calls {
		s.CallValue += pos.MarketValue
	}
	for _, pos := range p.Puts {
		s.PutValue += pos.MarketValue
	}
	for _, pos := range p.Cash {
		s.CashValue += pos.MarketValue
	}
	return s
}
