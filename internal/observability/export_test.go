package observability

import (
	"context"
	"crypto/rand"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ProbeBuildResource exposes buildResource for tests in observability_test.
func ProbeBuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// ProbeSamplerSpan reports whether a root span (no parent context) would be
// sampled under the sampler selected by cfg and the process environment.
func ProbeSamplerSpan(cfg Config) bool {
	sampler := selectSampler(cfg)

	var traceID trace.TraceID

	_, _ = rand.Read(traceID[:])

	result := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       traceID,
		Name:          "probe",
		Kind:          trace.SpanKindInternal,
	})

	return result.Decision != sdktrace.Drop
}
