package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/scaffold/pkg/lifecycle"
	"github.com/marmos91/scaffold/pkg/metrics"
)

// lifecycleMetrics is the Prometheus implementation of metrics.LifecycleMetrics.
type lifecycleMetrics struct {
	shutdowns *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewLifecycleMetrics creates Prometheus-backed lifecycle metrics registered on reg.
//
// Returns nil if reg is nil.
func NewLifecycleMetrics(reg prometheus.Registerer) metrics.LifecycleMetrics {
	if reg == nil {
		return nil
	}

	return &lifecycleMetrics{
		shutdowns: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "shutdowns_total",
				Help:      "Total number of shutdowns by outcome",
			},
			[]string{"outcome"}, // "clean", "timeout", "error"
		),
		duration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Name:      "shutdown_duration_seconds",
				Help:      "Time spent shutting down",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
	}
}

func (m *lifecycleMetrics) RecordShutdown(err error, duration time.Duration) {
	outcome := "clean"
	switch {
	case errors.Is(err, lifecycle.ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	m.shutdowns.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}
