package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives the operational signals of the service.
type Recorder interface {
	IncDelivery(outcome string)
	ObserveBroadcast(duration time.Duration, targeted int)
	IncHistoryWriteFailure()
	IncRequestsTotal(route string, status int)
	ObserveRequestDuration(route string, duration time.Duration)
}

// Prometheus implements Recorder with client_golang collectors.
type Prometheus struct {
	deliveries          *prometheus.CounterVec
	broadcastDuration   prometheus.Histogram
	broadcastTargets    prometheus.Histogram
	historyWriteFailure prometheus.Counter
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "webshell_push_deliveries_total",
			Help: "Push delivery attempts by outcome",
		}, []string{"outcome"}),

		broadcastDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "webshell_broadcast_duration_seconds",
			Help:    "Wall time of a whole broadcast fan-out",
			Buckets: prometheus.DefBuckets,
		}),

		broadcastTargets: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "webshell_broadcast_targets",
			Help:    "Devices targeted per broadcast",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),

		historyWriteFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "webshell_history_write_failures_total",
			Help: "Broadcasts whose history record could not be stored",
		}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "webshell_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webshell_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (p *Prometheus) IncDelivery(outcome string) {
	p.deliveries.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveBroadcast(duration time.Duration, targeted int) {
	p.broadcastDuration.Observe(duration.Seconds())
	p.broadcastTargets.Observe(float64(targeted))
}

func (p *Prometheus) IncHistoryWriteFailure() {
	p.historyWriteFailure.Inc()
}

func (p *Prometheus) IncRequestsTotal(route string, status int) {
	p.requestsTotal.WithLabelValues(route, statusBucket(status)).Inc()
}

func (p *Prometheus) ObserveRequestDuration(route string, duration time.Duration) {
	p.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop discards everything. Used when metrics are disabled and in tests.
type Noop struct{}

func (Noop) IncDelivery(string)                           {}
func (Noop) ObserveBroadcast(time.Duration, int)          {}
func (Noop) IncHistoryWriteFailure()                      {}
func (Noop) IncRequestsTotal(string, int)                 {}
func (Noop) ObserveRequestDuration(string, time.Duration) {}
