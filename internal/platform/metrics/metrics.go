package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide Prometheus metrics. Feature packages keep
// their own metrics next to their services; this covers transport concerns.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	SessionsOpened prometheus.Counter
}

// New creates and registers all shared Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "identia_http_request_duration_seconds",
			Help:    "HTTP request latency by path",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		SessionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identia_sessions_opened_total",
			Help: "Total number of citizen sessions opened",
		}),
	}
}

// ObserveRequestLatency records one request duration for a path.
func (m *Metrics) ObserveRequestLatency(path string, d time.Duration) {
	m.RequestLatency.WithLabelValues(path).Observe(d.Seconds())
}

// IncrementSessionsOpened increments the opened-sessions counter by 1.
func (m *Metrics) IncrementSessionsOpened() {
	m.SessionsOpened.Inc()
}
