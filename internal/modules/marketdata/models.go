package marketdata

// Quote is one normalized market-data row. ChangePercent and IVChange are
// always in percent units (1.34 means 1.34%) after normalization, never
// decimal fractions.
type Quote struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name,omitempty"`
	LastPrice       float64 `json:"last_price"`
	PriceChange     float64 `json:"price_change"`
	ChangePercent   float64 `json:"change_percent"`
	Volume          int64   `json:"volume"`
	IV30            float64 `json:"iv30"`
	IVChange        float64 `json:"iv_change"`
	IVChangeAbs     float64 `json:"iv_change_abs"`
	IV30Prev        float64 `json:"iv30_prev"`
	Volatility1Day  float64 `json:"volatility_1day"`
	Volatility20Day float64 `json:"volatility_20day"`
	OptionVolume    int64   `json:"option_volume"`
	PutCallRatio    float64 `json:"put_call_ratio"`
	YearToDate      float64 `json:"ytd"`
	OneYear         float64 `json:"one_year"`
}

// QuoteMap is the per-symbol snapshot produced by one ingestion. It is
// replaced wholesale on each load.
type QuoteMap map[string]Quote
