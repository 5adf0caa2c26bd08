package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hive-dashboard/internal/chat"
	"hive-dashboard/internal/telemetry"
)

func TestObserveWindow(t *testing.T) {
	c := New()
	window := []telemetry.Sample{
		{Temperature: 34.5},
		{Temperature: 35.25, Humidity: 55.5, Weight: 45.1, Activity: 88},
	}

	c.ObserveWindow(window)
	c.ObserveWindow(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 35.25, testutil.ToFloat64(c.reading.WithLabelValues("temperature")))
	assert.Equal(t, 55.5, testutil.ToFloat64(c.reading.WithLabelValues("humidity")))
	assert.Equal(t, 88.0, testutil.ToFloat64(c.reading.WithLabelValues("activity")))
}

func TestObserveSample_DoesNotCountTick(t *testing.T) {
	c := New()
	c.ObserveSample(telemetry.Sample{Weight: 45.3})
	assert.Equal(t, 0.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 45.3, testutil.ToFloat64(c.reading.WithLabelValues("weight")))
}

func TestObserveSend(t *testing.T) {
	c := New()
	c.ObserveSend(chat.OutcomeRejected, 0)
	c.ObserveSend(chat.OutcomeReply, 300*time.Millisecond)
	c.ObserveSend(chat.OutcomeReply, 200*time.Millisecond)
	c.ObserveSend(chat.OutcomeFailure, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.sends.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.sends.WithLabelValues("reply")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sends.WithLabelValues("failure")))

	mfs, err := c.Registry().Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range mfs {
		if mf.GetName() == "hive_chat_reply_latency_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), observed)
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveSend(chat.OutcomeEmpty, 10*time.Millisecond)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `hive_chat_sends_total{outcome="empty"} 1`)
}
