package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/marmos91/scaffold/internal/logger"
)

// State is the lifecycle state of a Service.
type State int32

const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyStarted is returned by Start on a service that left StateCreated.
	ErrAlreadyStarted = errors.New("service already started")

	// ErrNotRunning is returned by Close when Start has not completed successfully.
	ErrNotRunning = errors.New("service not running")
)

// Persistence is the database client owned by the service.
type Persistence interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Listener is the network server owned by the service.
//
// Listen must return once the address is bound; serving continues in the
// background until Close.
type Listener interface {
	Listen(ctx context.Context, host string, port int) error
	Close(ctx context.Context) error
}

// CloseFunc stops a running service. It is safe to call any number of times,
// concurrently; every call returns the outcome of the first.
type CloseFunc func(ctx context.Context) error

// Config configures a Service.
type Config struct {
	Host string
	Port int

	// CloseTimeout bounds how long Close waits for the listener to stop.
	// Default: DefaultCloseTimeout
	CloseTimeout time.Duration

	// OnClose, if set, observes the outcome of every shutdown.
	OnClose func(err error, elapsed time.Duration)
}

func (c *Config) applyDefaults() {
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = DefaultCloseTimeout
	}
}

// Service orchestrates startup (connect, then listen) and shutdown
// (stop listening, then disconnect).
type Service struct {
	cfg      Config
	db       Persistence
	listener Listener

	state   atomic.Int32
	closing atomic.Bool
	close   CloseFunc
}

// New creates a lifecycle service in StateCreated.
func New(cfg Config, db Persistence, listener Listener) *Service {
	cfg.applyDefaults()
	s := &Service{
		cfg:      cfg,
		db:       db,
		listener: listener,
	}
	s.close = OnceFunc(s.shutdown)
	return s
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Address returns the configured listen address.
func (s *Service) Address() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start connects persistence, then starts the listener.
//
// If connecting fails the listener is never started. If listening fails the
// connection is released before returning. Either way the service ends up in
// StateStopped. On success it returns the idempotent close handle.
func (s *Service) Start(ctx context.Context) (CloseFunc, error) {
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return nil, ErrAlreadyStarted
	}

	logger.Debug("Connecting persistence")
	if err := s.db.Connect(ctx); err != nil {
		s.state.Store(int32(StateStopped))
		return nil, fmt.Errorf("failed to connect persistence: %w", err)
	}

	if err := s.listener.Listen(ctx, s.cfg.Host, s.cfg.Port); err != nil {
		listenErr := fmt.Errorf("failed to listen on %s: %w", s.Address(), err)
		if derr := s.db.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			logger.Warn("Error disconnecting persistence after listen failure", logger.Err(derr))
			listenErr = errors.Join(listenErr, fmt.Errorf("failed to disconnect persistence: %w", derr))
		}
		s.state.Store(int32(StateStopped))
		return nil, listenErr
	}

	s.state.Store(int32(StateRunning))
	logger.Info("Service started", logger.Address(s.Address()))
	return s.Close, nil
}

// Close stops the listener and disconnects persistence.
//
// Only the first call does the work; later and concurrent calls return its
// outcome. Close returns ErrNotRunning if Start has not succeeded.
func (s *Service) Close(ctx context.Context) error {
	if !s.closing.Load() && s.State() != StateRunning {
		return ErrNotRunning
	}
	return s.close(ctx)
}

// shutdown stops the listener under the deadline guard, then disconnects
// persistence regardless of the listener outcome.
func (s *Service) shutdown(ctx context.Context) error {
	s.closing.Store(true)
	s.state.Store(int32(StateStopping))
	start := time.Now()
	logger.Info("Shutting down", logger.State(StateStopping.String()))

	var errs []error

	_, err := WithTimeout(ctx, s.cfg.CloseTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.listener.Close(ctx)
	}, WithTimeoutMessage(fmt.Sprintf("listener did not close within %s", s.cfg.CloseTimeout)))
	if err != nil {
		logger.Error("Error stopping listener", logger.Err(err))
		errs = append(errs, fmt.Errorf("failed to stop listener: %w", err))
	}

	if err := s.db.Disconnect(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Error disconnecting persistence", logger.Err(err))
		errs = append(errs, fmt.Errorf("failed to disconnect persistence: %w", err))
	}

	s.state.Store(int32(StateStopped))

	closeErr := errors.Join(errs...)
	elapsed := time.Since(start)
	if s.cfg.OnClose != nil {
		s.cfg.OnClose(closeErr, elapsed)
	}
	if closeErr == nil {
		logger.Info("Service stopped", logger.DurationMs(float64(elapsed.Microseconds())/1000.0))
	}
	return closeErr
}
