package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/adapter/mapping"
	"github.com/eslsoft/wordindex/internal/adapter/rest"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
)

const (
	_defaultReadTimeout     = 15 * time.Second
	_defaultWriteTimeout    = 60 * time.Second
	_defaultShutdownTimeout = 10 * time.Second
)

// Server represents the application server
type Server struct {
	config     *config.Config
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logrus.Logger, searchHandler *rest.SearchHandler, wordHandler *rest.WordHandler) *Server {
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.HTTPPort)),
		Handler:      NewRouter(cfg, logger, searchHandler, wordHandler),
		ReadTimeout:  orDefault(cfg.Server.ReadTimeout, _defaultReadTimeout),
		WriteTimeout: orDefault(cfg.Server.WriteTimeout, _defaultWriteTimeout),
	}
	return &Server{
		config:     cfg,
		httpServer: httpServer,
		logger:     logger,
	}
}

// NewRouter assembles the middleware chain and mounts the API routes.
func NewRouter(cfg *config.Config, logger logrus.FieldLogger, searchHandler *rest.SearchHandler, wordHandler *rest.WordHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(AccessLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(cfg.Server.CORSOrigins))
	r.Use(RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		mapping.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1/search", searchHandler.Routes)
	r.Route("/v1/words", wordHandler.Routes)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		mapping.WriteError(w, http.StatusNotFound, mapping.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		mapping.WriteError(w, http.StatusMethodNotAllowed, mapping.CodeInvalidArgument, "method not allowed")
	})
	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}).Handler
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infof("HTTP server starting on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(ctx, orDefault(s.config.Server.ShutdownTimeout, _defaultShutdownTimeout))
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.logger.Info("Server shutdown complete")
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
