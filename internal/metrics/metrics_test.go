package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.FetchCompleted("success", 12)
	m.FetchCompleted("error", 0)
	m.FetchCompleted("success", 3)
	m.ResolutionMisses(4)
	m.ResolutionMisses(0)
	m.RouteMiss()
	m.CacheLookup(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.resolutionMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routeMisses))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.snapshotFiles))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.FetchCompleted("success", 1)
	m.FetchRejected("in_flight")
	m.SelectionPublished()
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := New()
	m.RouteMiss()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "repo_context_route_misses_total 1")
}
