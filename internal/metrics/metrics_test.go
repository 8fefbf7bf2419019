package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.DocumentsProcessed(3)
	m.SourcesSkipped(1)
	m.AnalyticsTier("betweenness", "exact")
	m.CacheSize(2)
	m.CacheEvicted("capacity", 1)
	m.CacheEvicted("age", 0)
	m.ViewRequest("ok")
	m.ObserveStage("extract", time.Now())

	assert.Equal(t, 3.0, testutil.ToFloat64(m.documents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheEvictions.WithLabelValues("capacity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyticsTiers.WithLabelValues("betweenness", "exact")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "graphnet_documents_processed_total 3"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.DocumentsProcessed(1)
	m.CacheSize(1)
	m.ObserveStage("x", time.Now())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
