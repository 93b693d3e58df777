// Package api serves the MetroFlow dashboard page, its filter actions and a
// small read-only JSON API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/lan-dot-party/metroflow/internal/config"
	"github.com/lan-dot-party/metroflow/internal/dashboard"
	"github.com/lan-dot-party/metroflow/internal/scheduler"
	"github.com/lan-dot-party/metroflow/internal/storage"
	"github.com/lan-dot-party/metroflow/pkg/version"
)

const (
	// rateWindow is the window the filter rate limit applies to.
	rateWindow = time.Minute

	requestTimeout = 60 * time.Second
)

// StatusProvider reports the refresh scheduler state. *scheduler.Scheduler
// implements it.
type StatusProvider interface {
	GetStatus() scheduler.Status
}

// Server represents the HTTP web server (Dashboard + API).
type Server struct {
	config     *config.WebserverConfig
	fullConfig *config.Config
	ctrl       *dashboard.Controller
	storage    storage.Storage
	scheduler  StatusProvider
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// NewServer creates a new server instance. store may be nil when the journal
// is disabled.
func NewServer(cfg *config.Config, ctrl *dashboard.Controller, store storage.Storage, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if ctrl == nil {
		return nil, fmt.Errorf("dashboard controller is required")
	}

	s := &Server{
		config:     &cfg.Webserver,
		fullConfig: cfg,
		ctrl:       ctrl,
		storage:    store,
		logger:     logger,
	}

	s.setupRouter()
	return s, nil
}

// SetScheduler exposes the scheduler state on /api/state.
func (s *Server) SetScheduler(p StatusProvider) {
	s.scheduler = p
}

// setupRouter configures the Chi router with all routes and middleware.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpMetricsMiddleware)

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:",
	})
	r.Use(secureMiddleware.Handler)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if s.config.Auth.Enabled() {
		r.Use(s.basicAuthMiddleware)
	}

	r.Group(func(gr chi.Router) {
		gr.Use(chimiddleware.Timeout(requestTimeout))

		// Health check (no auth required)
		gr.Get("/health", s.handleHealth)

		gr.Get("/", s.handleDashboard)
		gr.Get("/charts/{surface}", s.handleChart)

		gr.Route("/api", func(r chi.Router) {
			r.Get("/", s.handleAPIIndex)
			r.Get("/state", s.handleState)
			r.Get("/cycles", s.handleGetCycles)
			r.Get("/cycles/stats", s.handleGetCycleStats)
			r.Get("/cycles/{id}", s.handleGetCycle)
		})

		gr.Get("/metrics", s.handlePrometheusMetrics)
	})

	// Filter actions run a shared load cycle, bounded only by upstream.timeout.
	r.Group(func(gr chi.Router) {
		if s.config.RateLimit > 0 {
			gr.Use(httprate.Limit(s.config.RateLimit, rateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					s.writeError(w, http.StatusTooManyRequests, "too many filter requests")
				}),
			))
		}
		gr.Post("/filters/apply", s.handleApplyFilters)
		gr.Post("/filters/reset", s.handleResetFilters)
	})

	s.router = r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting web server",
		zap.String("listen", s.config.Listen),
		zap.String("version", version.GetShortVersion()),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down web server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router (useful for testing).
func (s *Server) Router() chi.Router {
	return s.router
}
