// Package server provides the HTTP server and routing for navcast.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/navcast/internal/config"
	"github.com/aristath/navcast/internal/modules/holdings"
	holdingshandlers "github.com/aristath/navcast/internal/modules/holdings/handlers"
	"github.com/aristath/navcast/internal/modules/marketdata"
	marketdatahandlers "github.com/aristath/navcast/internal/modules/marketdata/handlers"
	"github.com/aristath/navcast/internal/modules/metrics"
	metricshandlers "github.com/aristath/navcast/internal/modules/metrics/handlers"
	"github.com/aristath/navcast/internal/modules/moneyness"
	moneynesshandlers "github.com/aristath/navcast/internal/modules/moneyness/handlers"
	"github.com/aristath/navcast/internal/modules/nowcast"
	nowcasthandlers "github.com/aristath/navcast/internal/modules/nowcast/handlers"
	"github.com/aristath/navcast/internal/modules/validation"
	validationhandlers "github.com/aristath/navcast/internal/modules/validation/handlers"
	"github.com/aristath/navcast/internal/services"
)

// Config holds server configuration
type Config struct {
	Log        zerolog.Logger
	Config     *config.Config
	Classifier *holdings.Classifier
	Normalizer *marketdata.Normalizer
	Aggregator *metrics.Aggregator
	Analyzer   *moneyness.Analyzer
	Validator  *validation.Validator
	Engine     *nowcast.Engine
	State      *services.StateService
	Refresh    *services.RefreshService
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	systemHandlers *SystemHandlers

	holdingsHandler   *holdingshandlers.Handler
	marketDataHandler *marketdatahandlers.Handler
	metricsHandler    *metricshandlers.Handler
	moneynessHandler  *moneynesshandlers.Handler
	nowcastHandler    *nowcasthandlers.Handler
	validationHandler *validationhandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.State),

		holdingsHandler:   holdingshandlers.NewHandler(cfg.Classifier, cfg.State, cfg.Refresh, cfg.Log),
		marketDataHandler: marketdatahandlers.NewHandler(cfg.Normalizer, cfg.State, cfg.Refresh, cfg.Log),
		metricsHandler:    metricshandlers.NewHandler(cfg.Aggregator, cfg.State, cfg.Log),
		moneynessHandler:  moneynesshandlers.NewHandler(cfg.Analyzer, cfg.State, cfg.Log),
		nowcastHandler:    nowcasthandlers.NewHandler(cfg.Engine, cfg.State, cfg.Log),
		validationHandler: validationhandlers.NewHandler(cfg.Validator, cfg.State, cfg.Log),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleSystemHealth)
			r.Get("/status", s.systemHandlers.HandleDataStatus)
		})

		s.holdingsHandler.RegisterRoutes(r)
		s.marketDataHandler.RegisterRoutes(r)
		s.metricsHandler.RegisterRoutes(r)
		s.moneynessHandler.RegisterRoutes(r)
		s.nowcastHandler.RegisterRoutes(r)
		s.validationHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
