package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProctorMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProctorMetrics(reg)
	require.NotNil(t, m.Feed)
	require.NotNil(t, m.Alert)
	require.NotNil(t, m.Session)

	assert.Panics(t, func() { NewProctorMetrics(reg) })
}

func TestFeedMetrics_Poll(t *testing.T) {
	m := NewFeedMetrics(prometheus.NewRegistry())

	m.Poll("warning", OutcomeOK)
	m.Poll("warning", OutcomeOK)
	m.Poll("capture", OutcomeError)
	m.BreakerChanged("capture", "open", 2)

	assert.InDelta(t, 2, testutil.ToFloat64(m.PollsTotal.WithLabelValues("warning", OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PollsTotal.WithLabelValues("capture", OutcomeError)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.BreakerState.WithLabelValues("capture")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("capture", "open")), 0)
}

func TestAlertMetrics_AlarmGauge(t *testing.T) {
	m := NewAlertMetrics(prometheus.NewRegistry())

	m.AlarmStarted()
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlarmActive), 0)

	m.AlarmStopped()
	assert.InDelta(t, 0, testutil.ToFloat64(m.AlarmActive), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlarmTransitions.WithLabelValues("start")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlarmTransitions.WithLabelValues("stop")), 0)
}

func TestSessionMetrics_Steps(t *testing.T) {
	m := NewSessionMetrics(prometheus.NewRegistry())

	m.Step("classify", errors.New("boom"))
	m.Step("fetch_logs", nil)
	m.Negotiated(OutcomeOK, 1200*time.Millisecond)
	m.Remaining(900)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SubmissionSteps.WithLabelValues("classify", OutcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SubmissionSteps.WithLabelValues("fetch_logs", OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NegotiationsTotal.WithLabelValues(OutcomeOK)), 0)
	assert.InDelta(t, 900, testutil.ToFloat64(m.RemainingSeconds), 0)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var feed *FeedMetrics
	var alert *AlertMetrics
	var session *SessionMetrics

	assert.NotPanics(t, func() {
		feed.Poll("warning", OutcomeOK)
		feed.BreakerChanged("warning", "open", 2)
		alert.Served("tone", "resource")
		alert.Unserved("tone")
		alert.AlarmStarted()
		alert.AlarmStopped()
		session.Step("classify", nil)
		session.Negotiated(OutcomeOK, time.Second)
		session.Submitted("manual")
		session.Remaining(1)
	})
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/session", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/session", "/metrics"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/session", "200")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")), 0)
}
