package holdings

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/ingest"
)

// Option tickers follow the OCC convention: root symbol, 6-digit YYMMDD
// expiration, C/P flag, then the strike scaled by 1000 in an 8-digit field.
// Some extracts drop leading zeros or the separating space, so a looser
// fallback pattern is tried second.
var (
	occStrictPattern = regexp.MustCompile(`^([A-Z]+)\s+(\d{6})([CP])(\d{8})$`)
	occLoosePattern  = regexp.MustCompile(`^([A-Z]+)\s*(\d{6})([CP])(\d{5,8})$`)
	underlyingPrefix = regexp.MustCompile(`^([A-Z]+)`)
)

// Classifier turns raw holdings rows into a classified Portfolio.
type Classifier struct {
	log zerolog.Logger
	now func() time.Time
}

// NewClassifier creates a classifier using the real clock.
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{
		log: log.With().Str("service", "holdings").Logger(),
		now: time.Now,
	}
}

// WithClock overrides the classifier's clock. Days-to-expiry depends on
// "now", so tests pin it.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.now = now
	return c
}

// Classify builds a Portfolio from raw rows. Rows without a ticker are
// skipped; malformed numeric fields coerce to 0 rather than failing the row.
// Fund-level net assets and shares outstanding are captured from whichever
// rows carry them, last seen wins.
func (c *Classifier) Classify(rows []ingest.Row) *Portfolio {
	portfolio := &Portfolio{}

	for _, row := range rows {
		ticker := row.Get("StockTicker", "Ticker", "Symbol")
		if ticker == "" {
			continue
		}

		name := row.Get("SecurityName", "Security Name", "Name")

		pos := Position{
			Ticker:      ticker,
			CUSIP:       row.Get("CUSIP"),
			Name:        name,
			Underlying:  ticker,
			Kind:        KindStock,
			Certainty:   CertaintyDefault,
			Shares:      parseFloat(row.Get("Shares")),
			Price:       parseFloat(row.Get("Price")),
			MarketValue: parseFloat(row.Get("MarketValue", "Market Value")),
			Weight:      parseFloat(row.Get("Weightings", "Weight")),
		}

		c.classify(&pos)

		switch pos.Kind {
		case KindCall:
			portfolio.Calls = append(portfolio.Calls, pos)
		case KindPut:
			portfolio.Puts = append(portfolio.Puts, pos)
		case KindCash:
			portfolio.Cash = append(portfolio.Cash, pos)
		default:
			portfolio.Stocks = append(portfolio.Stocks, pos)
		}

		portfolio.Positions = append(portfolio.Positions, pos)
		portfolio.TotalValue += pos.MarketValue

		if v := row.Get("NetAssets", "Net Assets"); v != "" {
			portfolio.NetAssets = parseFloat(v)
		}
		if v := row.Get("SharesOutstanding", "Shares Outstanding"); v != "" {
			// parseInt-style tolerance: decimal strings truncate
			portfolio.SharesOutstanding = int64(parseFloat(v))
		}
	}

	c.log.Info().
		Int("positions", len(portfolio.Positions)).
		Int("stocks", len(portfolio.Stocks)).
		Int("calls", len(portfolio.Calls)).
		Int("puts", len(portfolio.Puts)).
		Int("cash", len(portfolio.Cash)).
		Int64("shares_outstanding", portfolio.SharesOutstanding).
		Msg("Holdings classified")

	return portfolio
}

// classify applies the ordered rule list to a position. The first matching
// rule assigns Kind and Certainty; the position is never reclassified.
func (c *Classifier) classify(pos *Position) {
	if match := occStrictPattern.FindStringSubmatch(pos.Ticker); match != nil {
		c.applyOptionMatch(pos, match, CertaintyOCC)
		return
	}
	if match := occLoosePattern.FindStringSubmatch(pos.Ticker); match != nil {
		c.applyOptionMatch(pos, match, CertaintyOCCLoose)
		return
	}

	nameLower := strings.ToLower(pos.Name)
	hasCall := strings.Contains(nameLower, " call") ||
		strings.Contains(nameLower, "call opt") ||
		strings.Contains(nameLower, "cll opt")
	hasPut := strings.Contains(nameLower, " put") ||
		strings.Contains(nameLower, "put opt")

	if hasCall || hasPut {
		if hasCall {
			pos.Kind = KindCall
		} else {
			pos.Kind = KindPut
		}
		pos.Certainty = CertaintyName
		if match := underlyingPrefix.FindStringSubmatch(pos.Ticker); match != nil {
			pos.Underlying = match[1]
		}
		c.log.Debug().
			Str("ticker", pos.Ticker).
			Str("kind", string(pos.Kind)).
			Msg("Option inferred from security name")
		return
	}

	tickerLower := strings.ToLower(pos.Ticker)
	if strings.Contains(nameLower, "money market") ||
		strings.Contains(nameLower, "cash") ||
		strings.Contains(nameLower, "sweep") ||
		strings.Contains(tickerLower, "mm") ||
		strings.Contains(tickerLower, "cash") {
		pos.Kind = KindCash
		pos.Certainty = CertaintyMarker
		return
	}

	// Conservative fallback: an unrecognized ticker is treated as a stock,
	// not rejected.
	pos.Kind = KindStock
	pos.Certainty = CertaintyDefault
}

// applyOptionMatch fills option attributes from an OCC pattern match.
func (c *Classifier) applyOptionMatch(pos *Position, match []string, certainty Certainty) {
	pos.Underlying = match[1]
	pos.Certainty = certainty
	if match[3] == "C" {
		pos.Kind = KindCall
	} else {
		pos.Kind = KindPut
	}

	dateStr := match[2] // YYMMDD
	year := 2000 + atoi(dateStr[0:2])
	month := atoi(dateStr[2:4])
	day := atoi(dateStr[4:6])
	expiration := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	pos.Expiration = &expiration

	// OCC stores strike as price x 1000 in 8 digits; shorter encodings seen
	// in the wild scale down accordingly, anything else is taken literally.
	strikeStr := match[4]
	var strike float64
	switch len(strikeStr) {
	case 8:
		strike = float64(atoi(strikeStr)) / 1000
	case 6:
		strike = float64(atoi(strikeStr)) / 100
	case 5:
		strike = float64(atoi(strikeStr)) / 10
	default:
		strike = parseFloat(strikeStr)
	}
	pos.Strike = &strike

	// Ceiling of calendar days until expiration; expired contracts go
	// negative on purpose.
	dte := int(math.Ceil(expiration.Sub(c.now()).Hours() / 24))
	pos.DaysToExpiry = &dte
}

// parseFloat coerces a raw extract field to float64, tolerating currency
// symbols, thousands separators and percent signs. Malformed input is 0.
func parseFloat(raw string) float64 {
	cleaned := strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
