// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/config"
	"github.com/vyrodovalexey/useradmin/internal/handler"
	"github.com/vyrodovalexey/useradmin/internal/middleware"
	"github.com/vyrodovalexey/useradmin/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	logger     *zap.Logger
	hub        *handler.EventHub
	registry   *prometheus.Registry
}

// New creates a new Server serving the users API backed by userStore.
func New(cfg *config.Config, logger *zap.Logger, userStore store.Store) *Server {
	router := mux.NewRouter()

	s := &Server{
		router: router,
		config: cfg,
		logger: logger,
	}
	if cfg.MetricsEnabled {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	s.setupMiddleware()
	s.setupRoutes(userStore)
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain. mux applies them in
// order, first outermost.
func (s *Server) setupMiddleware() {
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))
	if s.registry != nil {
		metrics := middleware.NewHTTPMetrics(s.registry, handler.EventsPath)
		s.router.Use(mux.MiddlewareFunc(metrics.Middleware()))
	}
	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	// Inside logging and metrics so a recovered panic is recorded as a 500.
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.CORS(s.config.AllowedOrigins())))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(userStore store.Store) {
	s.hub = handler.NewEventHub(s.logger)
	s.hub.RegisterRoutes(s.router)

	restHandler := handler.NewRESTHandler(userStore, s.hub, s.logger)
	restHandler.RegisterRoutes(s.router)

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Preflight requests only reach the CORS middleware through a matched route.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Strings("cors_origins", s.config.AllowedOrigins()),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// Hijacked change feed connections are not tracked by http.Server.
	s.hub.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Registry returns the server's metrics registry, nil when metrics are
// disabled.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Hub returns the change feed hub.
func (s *Server) Hub() *handler.EventHub {
	return s.hub
}
