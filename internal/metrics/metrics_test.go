package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.IncDelivery("delivered")
	m.IncDelivery("delivered")
	m.IncDelivery("subscription_gone")
	m.IncHistoryWriteFailure()
	m.IncRequestsTotal("/api/site.list", 200)
	m.IncRequestsTotal("/api/site.list", 503)
	m.ObserveBroadcast(120*time.Millisecond, 3)
	m.ObserveRequestDuration("/api/site.list", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveries.WithLabelValues("delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("subscription_gone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.historyWriteFailure))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/site.list", "5xx")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.broadcastDuration))
}

func TestStatusBucket(t *testing.T) {
	assert.Equal(t, "1xx", statusBucket(101))
	assert.Equal(t, "2xx", statusBucket(201))
	assert.Equal(t, "3xx", statusBucket(304))
	assert.Equal(t, "4xx", statusBucket(429))
	assert.Equal(t, "5xx", statusBucket(500))
}

func TestNoop_SatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.IncDelivery("delivered")
	r.ObserveBroadcast(time.Second, 1)
}
