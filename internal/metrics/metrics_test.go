package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Frame("LiveEvent", "ok")
		m.Request("ReadEEPROM")
		m.Timeout()
		m.Retry()
		m.Collision("zone")
		m.Handshake("authenticated")
		m.Labels("zone", 3)
		m.SetConnected(true)
	})
}

func TestCounters(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)

	m.Frame("LiveEvent", "ok")
	m.Frame("LiveEvent", "ok")
	m.Collision("zone")
	m.Labels("zone", 7)
	m.SetConnected(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesTotal.WithLabelValues("LiveEvent", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CollisionsTotal.WithLabelValues("zone")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.LabelsGauge.WithLabelValues("zone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connected))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.Timeout()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "paradox_request_timeouts_total 1"))
}
