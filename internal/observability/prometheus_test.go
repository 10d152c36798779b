package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b00lduck/elementary/internal/observability"
)

func TestPrometheusHandler_ServesMetricsEndpoint(t *testing.T) {
	t.Parallel()

	handler, err := observability.PrometheusHandler()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrometheusHandler_IndependentRegistriesDoNotConflict(t *testing.T) {
	t.Parallel()

	_, err := observability.PrometheusHandler()
	require.NoError(t, err)

	_, err = observability.PrometheusHandler()
	require.NoError(t, err)
}
