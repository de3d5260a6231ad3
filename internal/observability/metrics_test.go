package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordTransition(t *testing.T) {
	m := NewMetrics()
	m.RecordTransition("Issue", "Assigned")
	m.RecordTransition("Issue", "Assigned")
	m.RecordTransition("Return", "Under Repair")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("Issue", "Assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("Return", "Under Repair")))
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/assets", "GET", 200, 15*time.Millisecond)
	m.RecordCache(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/assets",status="200"} 1`)
	assert.Contains(t, string(body), `stock_summary_cache_total{result="hit"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "NOT_FOUND")
		m.RecordTransition("Scrap", "Scrapped")
		m.RecordCache(false)
	})
}
