// Package server exposes the question-answering engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/ratelimit"
)

type Server struct {
	cfg     config.ServerConfig
	http    *http.Server
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// New builds the API server. m and stats may be nil; without stats the
// analytics endpoint answers 404.
func New(cfg config.ServerConfig, h *Handler, checker *health.Checker, m *metrics.Metrics, stats *analytics.Aggregator) *Server {
	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/api/v1/answer", h.Answer},
		{http.MethodGet, "/api/v1/corpus", h.Corpus},
		{http.MethodPost, "/api/v1/corpus/reload", h.Reload},
		{http.MethodGet, "/api/v1/analytics", h.analytics(stats)},
		{http.MethodGet, "/health/live", checker.LiveHandler()},
		{http.MethodGet, "/health/ready", checker.ReadyHandler()},
	}
	mux := http.NewServeMux()
	paths := make([]string, 0, len(routes))
	for _, rt := range routes {
		mux.HandleFunc(rt.method+" "+rt.path, rt.handler)
		paths = append(paths, rt.path)
	}

	// outermost first
	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.CORS(middleware.DefaultCORSConfig()),
	}
	if m != nil {
		mws = append(mws, middleware.Metrics(m, paths...))
	}
	var limiter *ratelimit.Limiter
	if cfg.RateLimit > 0 {
		limiter = ratelimit.New(cfg.RateLimit, time.Minute)
		mws = append(mws, middleware.RateLimit(limiter))
	}
	mws = append(mws, middleware.Timeout(cfg.RequestTimeout.Std()))
	chain := middleware.Chain(mux, mws...)

	return &Server{
		cfg:     cfg,
		limiter: limiter,
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      chain,
			ReadTimeout:  cfg.ReadTimeout.Std(),
			WriteTimeout: cfg.WriteTimeout.Std(),
		},
		logger: slog.Default().With("component", "http-server"),
	}
}

// Handler returns the routed and middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is done, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}
	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Std())
		defer cancel()
		shutdownErr <- s.http.Shutdown(shutdownCtx)
	}()

	s.logger.Info("answer service listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.logger.Info("answer service stopped")
	return nil
}
