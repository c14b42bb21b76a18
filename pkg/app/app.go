// Package app wires the service together: logger, telemetry, database
// client, HTTP server and lifecycle orchestration, all from one validated
// configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/scaffold/internal/logger"
	"github.com/marmos91/scaffold/internal/telemetry"
	"github.com/marmos91/scaffold/pkg/api"
	"github.com/marmos91/scaffold/pkg/config"
	"github.com/marmos91/scaffold/pkg/lifecycle"
	"github.com/marmos91/scaffold/pkg/metrics"
	promMetrics "github.com/marmos91/scaffold/pkg/metrics/prometheus"
	"github.com/marmos91/scaffold/pkg/store"
)

// Options carries the settings that do not come from the environment.
type Options struct {
	// Version is reported to the trace and profiling backends.
	Version string

	// Registry receives every metric. Default: metrics.NewRegistry().
	Registry *prometheus.Registry

	// Store tunes the database connection pool.
	Store store.Options

	// Server tunes the HTTP server. ServiceName defaults to the logger name
	// and BodyLimit to the configured BODY_LIMIT.
	Server api.ServerConfig
}

// App is a fully wired service, ready to Start.
type App struct {
	cfg      *config.Config
	registry *prometheus.Registry
	store    *store.Client
	server   *api.Server
	service  *lifecycle.Service
	close    lifecycle.CloseFunc

	stopTracing   telemetry.ShutdownFunc
	stopProfiling func() error
}

// New builds the application from a validated configuration.
//
// It configures the global logger, starts tracing and profiling when their
// endpoints are set, and creates the database client, HTTP server and
// lifecycle service. Nothing is connected or bound until Start.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := logger.Init(logger.Config{
		Name:   cfg.LogName,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}

	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Server.ServiceName == "" {
		opts.Server.ServiceName = cfg.LogName
	}
	if opts.Server.BodyLimit == 0 {
		opts.Server.BodyLimit = int64(cfg.BodyLimit)
	}

	a := &App{cfg: cfg, registry: opts.Registry}
	if a.registry == nil {
		a.registry = metrics.NewRegistry()
	}

	var err error
	a.stopTracing, err = telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.TelemetryEnabled(),
		ServiceName:    opts.Server.ServiceName,
		ServiceVersion: opts.Version,
		Endpoint:       cfg.TelemetryEndpoint,
		Insecure:       true,
		SampleRate:     cfg.TelemetrySampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a.stopProfiling, err = telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.ProfilingEnabled(),
		ServiceName:    opts.Server.ServiceName,
		ServiceVersion: opts.Version,
		Endpoint:       cfg.ProfilingEndpoint,
	})
	if err != nil {
		a.releaseTelemetry(ctx)
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	a.store, err = store.New(cfg.DatabaseURL, opts.Store)
	if err != nil {
		a.releaseTelemetry(ctx)
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	a.server = api.NewServer(opts.Server,
		api.WithHealthChecker(a.store),
		api.WithMetrics(promMetrics.NewHTTPMetrics(a.registry), a.registry),
	)

	shutdowns := promMetrics.NewLifecycleMetrics(a.registry)
	a.service = lifecycle.New(lifecycle.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		CloseTimeout: cfg.ShutdownTimeout,
		OnClose: func(err error, elapsed time.Duration) {
			if shutdowns != nil {
				shutdowns.RecordShutdown(err, elapsed)
			}
		},
	}, a.store, a.server)
	a.close = lifecycle.OnceFunc(a.shutdown)

	logger.Debug("Application configured", "config", a.cfg.Redacted())
	return a, nil
}

// Server returns the HTTP server, for route registration before Start.
func (a *App) Server() *api.Server {
	return a.server
}

// Done delivers an HTTP serve failure that happened while running. The
// service is still considered running; callers are expected to Close it.
func (a *App) Done() <-chan error {
	return a.server.Done()
}

// Store returns the database client.
func (a *App) Store() *store.Client {
	return a.store
}

// Registry returns the metrics registry served on /metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// State returns the lifecycle state of the service.
func (a *App) State() lifecycle.State {
	return a.service.State()
}

// Start connects the database and starts listening. The returned handle
// stops the service and flushes telemetry; it is idempotent.
func (a *App) Start(ctx context.Context) (lifecycle.CloseFunc, error) {
	ctx, span := telemetry.StartLifecycleSpan(ctx, "start", telemetry.LifecycleState(lifecycle.StateStarting.String()))
	defer span.End()

	if _, err := a.service.Start(ctx); err != nil {
		telemetry.RecordError(ctx, err)
		a.releaseTelemetry(ctx)
		return nil, err
	}
	return a.close, nil
}

// Close is the same handle Start returns.
func (a *App) Close(ctx context.Context) error {
	return a.close(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	spanCtx, span := telemetry.StartLifecycleSpan(ctx, "close", telemetry.LifecycleState(lifecycle.StateStopping.String()))
	err := a.service.Close(spanCtx)
	telemetry.RecordError(spanCtx, err)
	span.End()

	a.releaseTelemetry(ctx)
	return err
}

// releaseTelemetry stops the profiler and flushes pending spans. Failures
// here never fail a shutdown.
func (a *App) releaseTelemetry(ctx context.Context) {
	if a.stopProfiling != nil {
		if err := a.stopProfiling(); err != nil {
			logger.Warn("Error stopping profiler", logger.Err(err))
		}
	}
	if a.stopTracing != nil {
		if err := a.stopTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Error flushing traces", logger.Err(err))
		}
	}
}
