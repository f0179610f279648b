package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tracking module.
// Tracks trámite creation, status lookups, and lookup durations.
type Metrics struct {
	TramitesCreated prometheus.Counter
	LookupsFound    prometheus.Counter
	LookupsMissed   prometheus.Counter
	LookupDuration  prometheus.Histogram
}

// New creates a new Metrics instance with all tracking module metrics registered.
func New() *Metrics {
	return &Metrics{
		TramitesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identia_tramites_created_total",
			Help: "Total number of trámites registered with a tracking PIN",
		}),
		LookupsFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identia_pin_lookups_found_total",
			Help: "Total number of PIN status lookups that matched a trámite",
		}),
		LookupsMissed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identia_pin_lookups_missed_total",
			Help: "Total number of PIN status lookups with no matching trámite",
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "identia_pin_lookup_duration_seconds",
			Help:    "Duration of PIN status lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a trámite registration.
func (m *Metrics) IncrementCreated() {
	m.TramitesCreated.Inc()
}

// IncrementLookup records a PIN lookup outcome.
func (m *Metrics) IncrementLookup(found bool) {
	if found {
		m.LookupsFound.Inc()
		return
	}
	m.LookupsMissed.Inc()
}

// ObserveLookup records the duration of a PIN lookup.
// Call with time.Now() at the start of the lookup.
func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}
