package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRequestsAndResults(t *testing.T) {
	m := NewMetrics()
	env := newTestEnv(t, func(a *App) { a.Metrics = m })
	env.addEvent(t, day(10, 0), day(11, 0))

	w := env.do(t, http.MethodPost, "/api/availability/check", "alice-token", map[string]any{
		"emails":    []string{"alice@example.com", "bob@example.com", "ghost@example.com"},
		"startTime": "2025-01-15T10:00:00Z",
		"endTime":   "2025-01-15T10:30:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkStatuses.WithLabelValues("blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkStatuses.WithLabelValues("free")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkStatuses.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/availability/check", "200")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "calendar_http_requests_total")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeCheck(nil)
		m.observeSlots(nil)
		m.observeImport(3)
	})
}
