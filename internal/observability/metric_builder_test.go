package observability_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/b00lduck/elementary/internal/observability"
)

// TestNewREDMetrics_InstrumentCreationSucceeds exercises metricBuilder's
// counter/histogram/upDownCounter paths indirectly through the public
// REDMetrics constructor, since metricBuilder itself is unexported.
func TestNewREDMetrics_InstrumentCreationSucceeds(t *testing.T) {
	t.Parallel()

	mp := sdkmetric.NewMeterProvider()
	meter := mp.Meter("test")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, red)
}

func TestNewREDMetrics_DuplicateMeterNamesDoNotCollide(t *testing.T) {
	t.Parallel()

	mp := sdkmetric.NewMeterProvider()

	red1, err := observability.NewREDMetrics(mp.Meter("a"))
	require.NoError(t, err)

	red2, err := observability.NewREDMetrics(mp.Meter("b"))
	require.NoError(t, err)

	require.NotNil(t, red1)
	require.NotNil(t, red2)
}
