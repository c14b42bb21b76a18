package telemetry

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/grafana/pyroscope-go"

	"github.com/marmos91/scaffold/internal/logger"
)

var profilingEnabled atomic.Bool

// InitProfiling starts Pyroscope continuous profiling.
// Returns a shutdown function that stops the profiler.
func InitProfiling(cfg ProfilingConfig) (shutdown func() error, err error) {
	if !cfg.Enabled {
		profilingEnabled.Store(false)
		return func() error { return nil }, nil
	}

	names := cfg.ProfileTypes
	if len(names) == 0 {
		names = DefaultProfileTypes
	}

	profileTypes := make([]pyroscope.ProfileType, 0, len(names))
	for _, name := range names {
		pt, err := parseProfileType(name)
		if err != nil {
			return nil, fmt.Errorf("invalid profile type %q: %w", name, err)
		}
		profileTypes = append(profileTypes, pt)

		switch pt {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			runtime.SetMutexProfileFraction(5)
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			runtime.SetBlockProfileRate(5)
		}
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Logger:          profilerLogger{},
		Tags: map[string]string{
			"version": cfg.ServiceVersion,
		},
		ProfileTypes: profileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}

	profilingEnabled.Store(true)
	logger.Info("Profiling enabled", logger.Address(cfg.Endpoint))

	return func() error {
		profilingEnabled.Store(false)
		return profiler.Stop()
	}, nil
}

// IsProfilingEnabled returns whether profiling is enabled
func IsProfilingEnabled() bool {
	return profilingEnabled.Load()
}

// parseProfileType converts a string profile type to Pyroscope ProfileType.
func parseProfileType(pt string) (pyroscope.ProfileType, error) {
	switch pt {
	case "cpu":
		return pyroscope.ProfileCPU, nil
	case "alloc_objects":
		return pyroscope.ProfileAllocObjects, nil
	case "alloc_space":
		return pyroscope.ProfileAllocSpace, nil
	case "inuse_objects":
		return pyroscope.ProfileInuseObjects, nil
	case "inuse_space":
		return pyroscope.ProfileInuseSpace, nil
	case "goroutines":
		return pyroscope.ProfileGoroutines, nil
	case "mutex_count":
		return pyroscope.ProfileMutexCount, nil
	case "mutex_duration":
		return pyroscope.ProfileMutexDuration, nil
	case "block_count":
		return pyroscope.ProfileBlockCount, nil
	case "block_duration":
		return pyroscope.ProfileBlockDuration, nil
	default:
		return "", fmt.Errorf("unknown profile type: %s", pt)
	}
}

// profilerLogger routes Pyroscope's own messages through the service logger.
type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), logger.Component("pyroscope"))
}

func (profilerLogger) Debugf(format string, args ...any) {
	logger.Trace(fmt.Sprintf(format, args...), logger.Component("pyroscope"))
}

func (profilerLogger) Errorf(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...), logger.Component("pyroscope"))
}
