package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blog/missing" {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "not_found"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"_id": "p1"})
	}, WithMetrics(m))
	ctx := context.Background()

	_, err = c.Get(ctx, "p1", "")
	require.NoError(t, err)
	_, err = c.Get(ctx, "p1", "")
	require.NoError(t, err)
	_, err = c.Get(ctx, "missing", "")
	require.Error(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe(http.MethodGet, nil, 0) })

	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.observe(http.MethodPost, nil, 0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "error")))
}
