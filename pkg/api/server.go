package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/scaffold/internal/logger"
	"github.com/marmos91/scaffold/pkg/api/handlers"
	"github.com/marmos91/scaffold/pkg/metrics"
)

// ErrAlreadyListening is returned when Listen is called twice.
var ErrAlreadyListening = errors.New("server is already listening")

// Server provides the HTTP entrypoint of the service.
//
// Built-in endpoints:
//   - GET /health: Liveness check
//   - GET /health/ready: Readiness check (pings the database)
//   - GET /metrics: Prometheus metrics, when a gatherer is configured
//
// Application routes are added with Route before Listen. The server
// implements lifecycle.Listener: Listen binds and serves in the background,
// Close shuts it down gracefully and is safe to call more than once.
type Server struct {
	config ServerConfig
	router chi.Router

	health   handlers.HealthChecker
	metrics  metrics.HTTPMetrics
	gatherer prometheus.Gatherer

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	served   chan struct{}
	failed   chan error

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option customises a Server.
type Option func(*Server)

// WithHealthChecker makes /health/ready ping c.
func WithHealthChecker(c handlers.HealthChecker) Option {
	return func(s *Server) { s.health = c }
}

// WithMetrics records request metrics with m and exposes g on /metrics.
// Either may be nil.
func WithMetrics(m metrics.HTTPMetrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// NewServer creates a new HTTP server.
//
// The server is created in a stopped state. Register routes, then call Listen.
func NewServer(config ServerConfig, opts ...Option) *Server {
	config.applyDefaults()

	s := &Server{config: config, failed: make(chan error, 1)}
	for _, opt := range opts {
		opt(s)
	}
	s.router = newRouter(s)
	return s
}

// Route registers h for method and pattern, validated by schema.
func (s *Server) Route(method, pattern string, schema RouteSchema, h HandlerFunc) {
	s.router.Method(method, pattern, Handle(schema, h))
}

// Router exposes the underlying chi router for plain http.Handlers.
func (s *Server) Router() chi.Router {
	return s.router
}

// Handler returns the root handler, with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds host:port and starts serving in the background.
//
// It returns once the socket is bound, so a port conflict is reported here.
// Port 0 picks a free port; see Addr.
func (s *Server) Listen(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyListening
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.served = make(chan struct{})
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server failed", logger.Err(err))
			s.failed <- fmt.Errorf("API server failed: %w", err)
		}
	}(s.server, s.served)

	logger.Info("API server listening", logger.Address(ln.Addr().String()))
	logger.Debug("API endpoints available",
		"health", fmt.Sprintf("http://%s/health", ln.Addr()),
		"ready", fmt.Sprintf("http://%s/health/ready", ln.Addr()),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Done delivers the error that stopped the server outside of Close, such as
// a listener failure. Nothing is sent after a graceful shutdown.
func (s *Server) Done() <-chan error {
	return s.failed
}

// Close initiates graceful shutdown of the server.
//
// Close is safe to call multiple times; only the first call shuts down and
// later calls return its result. If ctx ends before in-flight requests
// drain, Close returns the context error and leaves those connections open.
func (s *Server) Close(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv, done := s.server, s.served
		s.mu.Unlock()

		if srv == nil {
			return
		}

		logger.Debug("API server shutdown initiated")
		if err := srv.Shutdown(ctx); err != nil {
			s.shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
			return
		}
		<-done
		logger.Info("API server stopped gracefully")
	})
	return s.shutdownErr
}
