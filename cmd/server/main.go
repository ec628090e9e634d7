// Package main is the entry point for the navcast NAV estimation service.
// It ingests holdings and market data extracts, classifies positions, and
// serves intraday NAV estimates with confidence intervals over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/navcast/internal/config"
	"github.com/aristath/navcast/internal/modules/holdings"
	"github.com/aristath/navcast/internal/modules/marketdata"
	"github.com/aristath/navcast/internal/modules/metrics"
	"github.com/aristath/navcast/internal/modules/moneyness"
	"github.com/aristath/navcast/internal/modules/nowcast"
	"github.com/aristath/navcast/internal/modules/validation"
	"github.com/aristath/navcast/internal/scheduler"
	"github.com/aristath/navcast/internal/server"
	"github.com/aristath/navcast/internal/services"
	"github.com/aristath/navcast/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("fund", cfg.FundSymbol).
		Str("data_dir", cfg.DataDir).
		Msg("Starting navcast")

	// Core services
	classifier := holdings.NewClassifier(log)
	normalizer := marketdata.NewNormalizer(log, marketdata.DefaultNormalizerOptions())
	aggregator := metrics.NewAggregator(cfg.CashSymbol, log)
	analyzer := moneyness.NewAnalyzer(log)
	validator := validation.NewValidator(cfg.CashSymbol, log)
	engine := nowcast.NewEngine(cfg.CashSymbol, log)

	state := services.NewStateService(log)
	refresh := services.NewRefreshService(cfg.DataDir, classifier, normalizer, state, log)

	// Initial ingest. A missing extract is not fatal; data can be posted
	// over the API or picked up by the next scheduled refresh.
	if err := refresh.ReloadAll(); err != nil {
		log.Warn().Err(err).Msg("Initial data load incomplete")
	}

	// Scheduled re-ingest of the data directory
	sched := scheduler.New(log)
	if cfg.RefreshCron != "" {
		job := scheduler.NewDataRefreshJob(refresh, log)
		if err := sched.AddJob(cfg.RefreshCron, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.RefreshCron).Msg("Invalid refresh schedule")
		}
		sched.Start()
	}

	srv := server.New(server.Config{
		Log:        log,
		Config:     cfg,
		Classifier: classifier,
		Normalizer: normalizer,
		Aggregator: aggregator,
		Analyzer:   analyzer,
		Validator:  validator,
		Engine:     engine,
		State:      state,
		Refresh:    refresh,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if cfg.RefreshCron != "" {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
