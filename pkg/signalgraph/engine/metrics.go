package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	metricInstructionsEmitted = "elementary.reconcile.instructions_emitted"
	metricNodeMapSize         = "elementary.reconcile.nodemap_size"
	metricReconcileTotal      = "elementary.reconcile.total"
)

// Metrics holds the OTel instruments the engine reports on every
// reconciliation: how large the emitted batch was, and how many distinct
// node hashes the NodeMap holds afterward.
type Metrics struct {
	instructionsEmitted metric.Int64Histogram
	nodeMapSize         metric.Int64Gauge
	reconcileTotal      metric.Int64Counter
}

// NewMetrics creates the engine's instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	instructionsEmitted, err := mt.Int64Histogram(metricInstructionsEmitted,
		metric.WithDescription("Instructions emitted per reconciliation"),
		metric.WithUnit("{instruction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInstructionsEmitted, err)
	}

	nodeMapSize, err := mt.Int64Gauge(metricNodeMapSize,
		metric.WithDescription("Distinct node hashes currently held in the NodeMap"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricNodeMapSize, err)
	}

	reconcileTotal, err := mt.Int64Counter(metricReconcileTotal,
		metric.WithDescription("Total number of reconciliations performed"),
		metric.WithUnit("{reconciliation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricReconcileTotal, err)
	}

	return &Metrics{
		instructionsEmitted: instructionsEmitted,
		nodeMapSize:         nodeMapSize,
		reconcileTotal:      reconcileTotal,
	}, nil
}

// NewNoopMetrics returns a Metrics backed by the OTel no-op meter, the
// engine's default when no Deps.Metrics is supplied.
func NewNoopMetrics() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("elementary/engine"))
	if err != nil {
		// The no-op meter never rejects instrument creation.
		panic("engine: no-op meter unexpectedly failed: " + err.Error())
	}

	return m
}

// ObserveReconcile records one completed reconciliation: the size of the
// emitted batch and the NodeMap's size afterward.
func (m *Metrics) ObserveReconcile(batchLen, nodeMapLen int) {
	ctx := context.Background()

	m.instructionsEmitted.Record(ctx, int64(batchLen))
	m.nodeMapSize.Record(ctx, int64(nodeMapLen))
	m.reconcileTotal.Add(ctx, 1)
}
