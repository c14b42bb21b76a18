package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	setTracerProvider(tp, "test", true)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		setTracerProvider(noop.NewTracerProvider(), "", false)
	})
	return rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "scaffold", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestNoopByDefault(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.operation")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
	assert.NotPanics(t, func() { RecordError(ctx, errors.New("ignored")) })
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(2).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(-1).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, Sampler(0.25).Description(), "ParentBased")
}

func TestStoreSpanRecorded(t *testing.T) {
	rec := useRecorder(t)
	assert.True(t, IsEnabled())

	ctx, span := StartStoreSpan(context.Background(), "connect", DBSystem("sqlite"), DBName(":memory:"))
	assert.Len(t, TraceID(ctx), 32)
	assert.Len(t, SpanID(ctx), 16)

	RecordError(ctx, errors.New("refused"))
	RecordError(ctx, nil)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "store.connect", ended[0].Name())
	assert.Equal(t, trace.SpanKindClient, ended[0].SpanKind())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String(AttrDBSystem, "sqlite"))
	assert.Len(t, ended[0].Events(), 1, "only the non-nil error is recorded")
}

func TestLifecycleSpanParenting(t *testing.T) {
	rec := useRecorder(t)

	ctx, parent := StartLifecycleSpan(context.Background(), "start", LifecycleState("starting"))
	_, child := StartStoreSpan(ctx, "ping")
	child.End()
	parent.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "store.ping", ended[0].Name())
	assert.Equal(t, "lifecycle.start", ended[1].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[1].SpanKind())
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		attr attribute.KeyValue
		key  string
		want string
	}{
		{DBSystem("postgresql"), AttrDBSystem, "postgresql"},
		{DBName("app"), AttrDBName, "app"},
		{ServerAddress("db:5432"), AttrServerAddress, "db:5432"},
		{Component("api"), AttrComponent, "api"},
		{LifecycleState("running"), AttrLifecycleState, "running"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, string(tt.attr.Key))
		assert.Equal(t, tt.want, tt.attr.Value.AsString())
	}
}

func TestProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}

func TestProfilingRejectsUnknownType(t *testing.T) {
	_, err := InitProfiling(ProfilingConfig{
		Enabled:      true,
		Endpoint:     "http://localhost:4040",
		ProfileTypes: []string{"cpu", "heap_dump"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"heap_dump"`)
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileType(t *testing.T) {
	for _, name := range DefaultProfileTypes {
		_, err := parseProfileType(name)
		assert.NoError(t, err, name)
	}

	pt, err := parseProfileType("mutex_duration")
	require.NoError(t, err)
	assert.Equal(t, pyroscope.ProfileMutexDuration, pt)

	_, err = parseProfileType("nope")
	assert.Error(t, err)
}
