package services

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/ingest"
	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

// Extract filename markers. Nightly drops land in the data directory as
// e.g. "ULTY_holdings_2025-08-29.csv" and "marketdata_2025-08-29.csv";
// discovery picks the newest file matching each marker.
const (
	holdingsMarker   = "holdings"
	marketDataMarker = "marketdata"
)

// RefreshService ingests the newest extracts from the data directory and
// publishes them to the state service. Used both at startup and by the
// cron-driven refresh.
type RefreshService struct {
	dataDir    string
	classifier *holdings.Classifier
	normalizer *marketdata.Normalizer
	state      *StateService
	log        zerolog.Logger
}

// NewRefreshService creates a refresh service over the given data directory.
func NewRefreshService(
	dataDir string,
	classifier *holdings.Classifier,
	normalizer *marketdata.Normalizer,
	state *StateService,
	log zerolog.Logger,
) *RefreshService {
	return &RefreshService{
		dataDir:    dataDir,
		classifier: classifier,
		normalizer: normalizer,
		state:      state,
		log:        log.With().Str("service", "refresh").Logger(),
	}
}

// ReloadHoldings discovers and ingests the newest holdings extract.
func (s *RefreshService) ReloadHoldings() (*holdings.Portfolio, error) {
	path, err := ingest.FindNewest(s.dataDir, holdingsMarker)
	if err != nil {
		return nil, fmt.Errorf("holdings discovery failed: %w", err)
	}
	rows, err := ingest.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("holdings ingest failed: %w", err)
	}
	portfolio := s.classifier.Classify(rows)
	s.state.SetPortfolio(portfolio, path)
	return portfolio, nil
}

// ReloadMarketData discovers and ingests the newest market data extract.
func (s *RefreshService) ReloadMarketData() (marketdata.QuoteMap, error) {
	path, err := ingest.FindNewest(s.dataDir, marketDataMarker)
	if err != nil {
		return nil, fmt.Errorf("market data discovery failed: %w", err)
	}
	rows, err := ingest.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("market data ingest failed: %w", err)
	}
	quotes := s.normalizer.Normalize(rows)
	s.state.SetQuotes(quotes, path)
	return quotes, nil
}

// ReloadAll refreshes both datasets. Each dataset fails independently; a
// missing market data extract does not block a holdings reload.
func (s *RefreshService) ReloadAll() error {
	var firstErr error
	if _, err := s.ReloadHoldings(); err != nil {
		s.log.Warn().Err(err).Msg("Holdings reload failed")
		firstErr = err
	}
	if _, err := s.ReloadMarketData(); err != nil {
		s.log.Warn().Err(err).Msg("Market data reload failed")
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
