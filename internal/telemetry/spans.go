package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys, following OpenTelemetry semantic conventions where one exists.
const (
	AttrDBSystem       = "db.system"
	AttrDBName         = "db.name"
	AttrServerAddress  = "server.address"
	AttrComponent      = "component"
	AttrLifecycleState = "lifecycle.state"
)

// DBSystem returns an attribute for the database driver (postgresql, sqlite).
func DBSystem(system string) attribute.KeyValue {
	return attribute.String(AttrDBSystem, system)
}

// DBName returns an attribute for the database name or file.
func DBName(name string) attribute.KeyValue {
	return attribute.String(AttrDBName, name)
}

// ServerAddress returns an attribute for a remote host:port.
func ServerAddress(addr string) attribute.KeyValue {
	return attribute.String(AttrServerAddress, addr)
}

// Component returns an attribute naming a subsystem.
func Component(name string) attribute.KeyValue {
	return attribute.String(AttrComponent, name)
}

// LifecycleState returns an attribute for a lifecycle state.
func LifecycleState(state string) attribute.KeyValue {
	return attribute.String(AttrLifecycleState, state)
}

// StartStoreSpan starts a client span for a database operation ("connect",
// "disconnect", "ping").
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "store."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// StartLifecycleSpan starts an internal span for a startup or shutdown phase.
func StartLifecycleSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "lifecycle."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}
