// Package httpserver exposes the comparison fragment, stored wishlists,
// health and metrics over HTTP.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Houeta/darkside-companion/internal/metrics"
	"github.com/Houeta/darkside-companion/internal/models"
	"github.com/Houeta/darkside-companion/internal/repository"
)

const (
	requestTimeout    = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

type ProductLoader interface {
	GetProduct(ctx context.Context, handle string) (*models.Product, error)
}

// Deps are the services the HTTP routes read from.
type Deps struct {
	Products  ProductLoader
	Storage   repository.Storage
	Gatherer  prometheus.Gatherer
	Metrics   *metrics.Metrics
	StartTime time.Time
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http *http.Server
	log  *slog.Logger
}

// New builds the HTTP server with its router and middlewares.
func New(addr string, log *slog.Logger, d Deps) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(log, d),
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			MaxHeaderBytes:    1 << 20, //nolint:mnd // 1 MiB
		},
		log: log,
	}
}

// NewRouter registers all routes on a chi router.
func NewRouter(log *slog.Logger, d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.NewRegistry()
	}

	h := &handlers{log: log, deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(accessLog(log))
	r.Use(d.Metrics.Middleware)

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/compare/{handle}", h.compare)
	r.Get("/wishlist/{scope}", h.wishlist)

	return r
}

// Start runs the HTTP server and blocks until it fails or is shut down.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpserver.Start: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("HTTP server shutting down...")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpserver.Stop: %w", err)
	}

	return nil
}
