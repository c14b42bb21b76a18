// Package metrics defines the observability hooks used by the HTTP server and
// the lifecycle service. Implementations are optional: a nil value disables
// collection with zero overhead.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric name.
const Namespace = "scaffold"

// HTTPMetrics records per-request observations.
type HTTPMetrics interface {
	// RecordRequestStart increments the in-flight gauge.
	RecordRequestStart(method string)

	// RecordRequestEnd decrements the in-flight gauge.
	RecordRequestEnd(method string)

	// RecordRequest records a completed request.
	//
	// Parameters:
	//   - method: HTTP method
	//   - route: matched route pattern (e.g. "/items/{id}"), never the raw path
	//   - status: response status code
	//   - duration: time spent serving the request
	RecordRequest(method, route string, status int, duration time.Duration)
}

// LifecycleMetrics records shutdown outcomes.
type LifecycleMetrics interface {
	// RecordShutdown records one shutdown and whether it completed cleanly.
	RecordShutdown(err error, duration time.Duration)
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
