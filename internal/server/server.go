package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/information-sharing-networks/newsletter/internal/logger"
	"github.com/information-sharing-networks/newsletter/internal/metrics"
	"github.com/information-sharing-networks/newsletter/internal/server/handlers"
	"github.com/information-sharing-networks/newsletter/internal/server/middleware"
	"github.com/information-sharing-networks/newsletter/internal/version"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Server struct {
	pool    *pgxpool.Pool
	queries *database.Queries
	config  *config.ServerEnvironment
	logger  *slog.Logger
	router  *chi.Mux
	metrics *metrics.Registry
}

func NewServer(
	pool *pgxpool.Pool,
	queries *database.Queries,
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
) (*Server, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if queries == nil {
		queries = database.New(pool)
	}

	server := &Server{
		pool:    pool,
		queries: queries,
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
		metrics: metrics.NewRegistry(),
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health_check", handlers.HandleHealthCheck)
	s.router.Get("/health/ready", handlers.HandleReadiness(s.queries))
	s.router.Get("/version", handlers.HandleVersion(version.Get()))
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.RequestSizeLimit(s.config.MaxRequestBodyBytes))
		r.Post("/subscriptions", handlers.HandleSubscribe(s.queries, s.metrics.Subscriptions))
	})
}

// Handler returns the fully configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured HOST:PORT and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	serverAddr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return s.Serve(ctx, listener)
}

// Serve handles requests on an already bound listener until ctx is cancelled,
// then shuts the HTTP server down gracefully. The listener is closed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", listener.Addr().String()))

		err := httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
