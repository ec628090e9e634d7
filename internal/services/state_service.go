package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
)

// StateService holds the current holdings and market data snapshots. Loads
// replace a snapshot wholesale under the write lock, so readers always see
// a consistent file's worth of data, never a partial ingest.
type StateService struct {
	mu sync.RWMutex

	portfolio   *holdings.Portfolio
	holdingsAt  time.Time
	holdingsSrc string

	quotes    marketdata.QuoteMap
	quotesAt  time.Time
	quotesSrc string

	log zerolog.Logger
}

// NewStateService creates an empty state service.
func NewStateService(log zerolog.Logger) *StateService {
	return &StateService{
		log: log.With().Str("service", "state").Logger(),
	}
}

// SetPortfolio replaces the holdings snapshot. source is the file it was
// ingested from, kept for the summary endpoints.
func (s *StateService) SetPortfolio(p *holdings.Portfolio, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = p
	s.holdingsAt = time.Now()
	s.holdingsSrc = source
	s.log.Info().
		Str("source", source).
		Int("positions", len(p.Positions)).
		Msg("Holdings snapshot replaced")
}

// SetQuotes replaces the market data snapshot.
func (s *StateService) SetQuotes(q marketdata.QuoteMap, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes = q
	s.quotesAt = time.Now()
	s.quotesSrc = source
	s.log.Info().
		Str("source", source).
		Int("quotes", len(q)).
		Msg("Market data snapshot replaced")
}

// Portfolio returns the current holdings snapshot, or nil when nothing has
// been loaded yet.
func (s *StateService) Portfolio() *holdings.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio
}

// Quotes returns the current market data snapshot, or nil when nothing has
// been loaded yet.
func (s *StateService) Quotes() marketdata.QuoteMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes
}

// Snapshot returns both datasets together under one read lock so a nowcast
// run never mixes snapshots from different refresh cycles.
func (s *StateService) Snapshot() (*holdings.Portfolio, marketdata.QuoteMap) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio, s.quotes
}

// DataStatus describes one dataset for the status endpoints.
type DataStatus struct {
	Loaded   bool      `json:"loaded"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Count    int       `json:"count"`
}

// Status reports both datasets.
func (s *StateService) Status() (holdingsStatus, quotesStatus DataStatus) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.portfolio != nil {
		holdingsStatus = DataStatus{
			Loaded:   true,
			Source:   s.holdingsSrc,
			LoadedAt: s.holdingsAt,
			Count:    len(s.portfolio.Positions),
		}
	}
	if s.quotes != nil {
		quotesStatus = DataStatus{
			Loaded:   true,
			Source:   s.quotesSrc,
			LoadedAt: s.quotesAt,
			Count:    len(s.quotes),
		}
	}
	return holdingsStatus, quotesStatus
}
