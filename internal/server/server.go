// Package server implements the gardenflow HTTP API.
//
// The API exposes the same pipeline the CLI runs: schemas are posted or
// looked up in the registry, compiled into flow graphs, laid out and
// returned as JSON the frontend renders directly.
//
// # Endpoints
//
//	POST /v1/flow                 schema + options -> positioned graph
//	GET  /v1/gardens              registry listing
//	GET  /v1/gardens/{name}/flow  graph for a registered garden (?format=svg for a preview)
//	POST /v1/validate             edit-boundary validation and lint findings
//	GET  /v1/schema               JSON Schema of the garden document
//	POST /v1/navigate             resolve a click on a cross-garden node
//	GET  /healthz                 liveness
//	GET  /metrics                 Prometheus metrics
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code.
package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/navigate"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 4 << 20

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second

	// maxResolvers bounds the per-client navigation state.
	maxResolvers = 4096
)

// Config configures a [Server].
type Config struct {
	// Runner executes the pipeline. Required.
	Runner *pipeline.Runner

	// Registry resolves references and backs the /v1/gardens endpoints.
	// A registry with a Snapshot method (such as store.Live) is read once
	// per request so a concurrent reload cannot mix versions.
	Registry garden.Registry

	// Defaults are the pipeline options requests overlay their own on.
	Defaults pipeline.Options

	// Cooldown is the per-client navigation cooldown.
	Cooldown time.Duration

	// Metrics serves /metrics. Nil selects the default Prometheus handler.
	Metrics http.Handler

	// MaxBodyBytes bounds request bodies. Zero selects DefaultMaxBodyBytes.
	MaxBodyBytes int64

	Logger *log.Logger
}

// Server is the HTTP API. It is safe for concurrent use.
type Server struct {
	runner   *pipeline.Runner
	registry garden.Registry
	defaults pipeline.Options
	cooldown time.Duration
	maxBody  int64
	logger   *log.Logger

	flights singleflight.Group

	mu        sync.Mutex
	resolvers map[string]*navigate.Resolver

	router chi.Router
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Registry == nil {
		cfg.Registry = garden.NewRegistry()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = navigate.DefaultCooldown
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Metrics == nil {
		cfg.Metrics = promhttp.Handler()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{
		runner:    cfg.Runner,
		registry:  cfg.Registry,
		defaults:  cfg.Defaults.Copy(),
		cooldown:  cfg.Cooldown,
		maxBody:   cfg.MaxBodyBytes,
		logger:    cfg.Logger,
		resolvers: make(map[string]*navigate.Resolver),
	}
	s.defaults.Logger = cfg.Logger

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/flow", s.handleFlow)
		r.Get("/gardens", s.handleGardens)
		r.Get("/gardens/{name}/flow", s.handleGardenFlow)
		r.Post("/validate", s.handleValidate)
		r.Get("/schema", s.handleSchema)
		r.Post("/navigate", s.handleNavigate)
	})
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown failed", "error", err)
		return err
	}
	return <-errCh
}

// snapshotter is implemented by registries that can be replaced while in use.
type snapshotter interface {
	Snapshot() *garden.MapRegistry
}

// snapshot returns the registry view one request resolves against.
func (s *Server) snapshot() garden.Registry {
	if live, ok := s.registry.(snapshotter); ok {
		return live.Snapshot()
	}
	return s.registry
}

// resolver returns the navigation resolver for one client. Each client has
// its own cooldown so one user's clicks never throttle another's.
func (s *Server) resolver(client string) *navigate.Resolver {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.resolvers[client]; ok {
		return r
	}
	if len(s.resolvers) >= maxResolvers {
		clear(s.resolvers)
	}
	r := navigate.NewResolver(s.registry, s.cooldown, s.logger)
	s.resolvers[client] = r
	return r
}
