package marketdata

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/ingest"
)

// defaultIV30 is used when an extract carries no implied-volatility level.
// Zero IV is never a meaningful default for an equity option book, so a
// typical level is assumed instead.
const defaultIV30 = 30.0

// NormalizerOptions toggles the scale-correction passes individually.
// Upstream exports are inconsistent about percent vs decimal representation;
// these corrections are best effort, and keeping them independently
// switchable lets tests pin each one down (including the case where the
// first two both fire on the same row).
type NormalizerOptions struct {
	FixDecimalChangePercent bool // |chg|>0.10 and |%chg|<0.10 => %chg was a decimal fraction
	RecomputeChangePercent  bool // distrust tiny parsed %chg when it disagrees with chg/last
	DeriveIVChangeFromPrev  bool // derive iv change from a previous-IV column when absent
	FixDecimalIVChange      bool // tiny non-zero iv change => decimal fraction
}

// DefaultNormalizerOptions enables every pass, matching production behavior.
func DefaultNormalizerOptions() NormalizerOptions {
	return NormalizerOptions{
		FixDecimalChangePercent: true,
		RecomputeChangePercent:  true,
		DeriveIVChangeFromPrev:  true,
		FixDecimalIVChange:      true,
	}
}

// Normalizer parses raw market-data rows into a QuoteMap.
type Normalizer struct {
	log  zerolog.Logger
	opts NormalizerOptions
}

// NewNormalizer creates a normalizer with the given options.
func NewNormalizer(log zerolog.Logger, opts NormalizerOptions) *Normalizer {
	return &Normalizer{
		log:  log.With().Str("service", "marketdata").Logger(),
		opts: opts,
	}
}

// Normalize builds the per-symbol quote map. Rows without a symbol are
// skipped. Numeric fields coerce to 0 on parse failure except IV30, which
// falls back to defaultIV30.
func (n *Normalizer) Normalize(rows []ingest.Row) QuoteMap {
	quotes := make(QuoteMap, len(rows))

	for _, row := range rows {
		symbol := row.Get("Symbol", "Ticker")
		if symbol == "" {
			continue
		}

		lastPrice := parseNum(row.Get("Last Price", "LastPrice", "Last"))
		priceChange := parseNum(row.Get("Chg", "Change"))
		changePercent := parseNum(row.Get("% Chg", "Change %", "ChangePercent"))

		// Pass (a): the percent column sometimes holds a decimal fraction
		// (0.0134 meaning 1.34%). A visible price change with a near-zero
		// percent is the tell.
		if n.opts.FixDecimalChangePercent &&
			math.Abs(priceChange) > 0.10 && math.Abs(changePercent) < 0.10 && changePercent != 0 {
			n.log.Debug().
				Str("symbol", symbol).
				Float64("parsed", changePercent).
				Msg("Converting decimal change percent to percent units")
			changePercent *= 100
		}

		// Pass (b): recompute the percent from price and change and prefer
		// it when the parsed value is both tiny and far off. Applied
		// independently of pass (a), as the upstream tool does.
		if n.opts.RecomputeChangePercent && lastPrice > 0 && priceChange != 0 {
			calculated := priceChange / (lastPrice - priceChange) * 100
			if math.Abs(calculated-changePercent) > 1 && math.Abs(changePercent) < 0.5 {
				n.log.Debug().
					Str("symbol", symbol).
					Float64("parsed", changePercent).
					Float64("calculated", calculated).
					Msg("Replacing unreliable change percent with calculated value")
				changePercent = calculated
			}
		}

		iv30 := parseNum(row.Get("IV30 Last", "IV30"))
		if iv30 == 0 {
			iv30 = defaultIV30
		}

		quote := Quote{
			Symbol:          symbol,
			Name:            row.Get("Name"),
			LastPrice:       lastPrice,
			PriceChange:     priceChange,
			ChangePercent:   changePercent,
			Volume:          int64(parseNum(row.Get("Volume"))),
			IV30:            iv30,
			IVChange:        parseNum(row.Get("IV30 % Chg", "IV30 Chg")),
			IVChangeAbs:     parseNum(row.Get("IV30 Chg")),
			IV30Prev:        parseNum(row.Get("IV30 Prev")),
			Volatility1Day:  parseNum(row.Get("1-Day Volatility")),
			Volatility20Day: parseNum(row.Get("20-Day Volatility")),
			OptionVolume:    int64(parseNum(row.Get("Option Volume"))),
			PutCallRatio:    parseNumDefault(row.Get(`Put\Call OI Ratio`, "Put/Call OI Ratio"), 1),
			YearToDate:      parseNum(row.Get("YTD")),
			OneYear:         parseNum(row.Get("1 Year")),
		}

		// Pass (c): no explicit IV change, but a previous level is present.
		if n.opts.DeriveIVChangeFromPrev && quote.IV30Prev > 0 && quote.IVChange == 0 {
			quote.IVChange = (quote.IV30 - quote.IV30Prev) / quote.IV30Prev * 100
		}

		// Pass (d): same decimal-fraction tell as pass (a), for IV change.
		if n.opts.FixDecimalIVChange && quote.IVChange != 0 && math.Abs(quote.IVChange) < 0.10 {
			n.log.Debug().
				Str("symbol", symbol).
				Float64("parsed", quote.IVChange).
				Msg("Converting decimal IV change to percent units")
			quote.IVChange *= 100
		}

		quotes[symbol] = quote
	}

	n.log.Info().Int("symbols", len(quotes)).Msg("Market data normalized")
	return quotes
}

func parseNum(raw string) float64 {
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

func parseNumDefault(raw string, fallback float64) float64 {
	if v := parseNum(raw); v != 0 {
		return v
	}
	return fallback
}
