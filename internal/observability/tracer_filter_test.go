package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/b00lduck/elementary/internal/observability"
)

func TestFilteringTracerProvider_SuppressesNamedTracer(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	filtered := observability.NewFilteringTracerProvider(tp)

	_, span := filtered.Tracer("elementary.reconcile.node").Start(context.Background(), "visit")
	span.End()

	assert.Empty(t, exporter.GetSpans(), "spans from a suppressed tracer must not reach the exporter")
}

func TestFilteringTracerProvider_SuppressesNamedSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	filtered := observability.NewFilteringTracerProvider(tp)

	tracer := filtered.Tracer("elementary.transport")

	_, suppressed := tracer.Start(context.Background(), "elementary.instruction.encode")
	suppressed.End()

	_, kept := tracer.Start(context.Background(), "elementary.transport.connection")
	kept.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "elementary.transport.connection", spans[0].Name)
}

func TestFilteringTracerProvider_PassesUnsuppressedTracersThrough(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	filtered := observability.NewFilteringTracerProvider(tp)

	_, span := filtered.Tracer("elementary.engine").Start(context.Background(), "render")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "render", spans[0].Name)
}
