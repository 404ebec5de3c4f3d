// Package server provides the HTTP server and routing for the trade journal.
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

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/di"
	"github.com/aristath/tradejournal/internal/identity"
	accountshandlers "github.com/aristath/tradejournal/internal/modules/accounts/handlers"
	contractshandlers "github.com/aristath/tradejournal/internal/modules/contracts/handlers"
	importshandlers "github.com/aristath/tradejournal/internal/modules/imports/handlers"
	pnlhandlers "github.com/aristath/tradejournal/internal/modules/pnl/handlers"
	reconciliationhandlers "github.com/aristath/tradejournal/internal/modules/reconciliation/handlers"
	tradinghandlers "github.com/aristath/tradejournal/internal/modules/trading/handlers"
)

// requestTimeout bounds every request, imports included
const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	startedAt      time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		startedAt: time.Now(),
	}
	s.systemHandlers = NewSystemHandlers(cfg.Container, s.startedAt, cfg.Log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
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

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", identity.Header},
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
		// The event stream is long-lived and stays outside the request timeout
		r.Group(func(r chi.Router) {
			r.Use(identity.Middleware)
			r.Get("/events/stream", NewEventsStreamHandler(s.container.EventBus, s.log).ServeHTTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			// System monitoring and operations
			r.Get("/system/status", s.systemHandlers.HandleStatus)
			r.Post("/system/jobs/{name}", s.systemHandlers.HandleRunJob)

			// Stateless pricing
			contractshandlers.NewHandler(s.container.ContractTable, s.log).RegisterRoutes(r)
			pnlhandlers.NewHandler(s.container.Calculator, s.log).RegisterRoutes(r)

			// User-scoped ledger operations
			r.Group(func(r chi.Router) {
				r.Use(identity.Middleware)

				accountshandlers.NewHandler(s.container.AccountService, s.container.AccountResolver, s.log).RegisterRoutes(r)
				tradinghandlers.NewTradingHandlers(s.container.TradingService, s.log).RegisterRoutes(r)
				importshandlers.NewHandler(s.container.Importer, s.log).RegisterRoutes(r)
				reconciliationhandlers.NewHandler(s.container.ReconciliationService, s.log).RegisterRoutes(r)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
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
