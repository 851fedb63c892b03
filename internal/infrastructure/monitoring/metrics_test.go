package monitoring

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewMetrics()

	m.SessionStarted()
	m.SessionStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsActive))

	m.SessionEnded("ok", 2*time.Second)
	NewTimer(m).Stop("killed")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionExits.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionExits.WithLabelValues("killed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SessionDuration))
}

func TestRoutingCounters(t *testing.T) {
	m := NewMetrics()

	m.LineRouted("log")
	m.LineRouted("log")
	m.LineRouted("watch")
	m.SpawnFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinesRouted.WithLabelValues("log")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinesRouted.WithLabelValues("watch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SpawnErrors))
}

func TestQueueDepthReadsTrackedLength(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth))

	pending := 7
	m.TrackQueue(func() int { return pending })
	assert.Equal(t, 7.0, testutil.ToFloat64(m.QueueDepth))

	pending = 2
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueueDepth))

	m.TrackQueue(nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueueDepth))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.SpawnFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SpawnErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SpawnErrors))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SessionStarted()
		m.SessionEnded("ok", time.Second)
		m.SpawnFailed()
		m.LineRouted("log")
		m.TrackQueue(func() int { return 3 })
		NewTimer(m).Stop("failed")
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.SessionStarted()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "buildwatch_sessions_started_total 1")
	assert.Contains(t, string(body), "buildwatch_uptime_seconds")
	assert.Contains(t, string(body), "go_goroutines")
}
