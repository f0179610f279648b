package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the workflow module.
// Tracks step executions, terminal outcomes, and step handler durations.
type Metrics struct {
	StepsExecuted       *prometheus.CounterVec
	ProceduresCompleted prometheus.Counter
	ProceduresErrored   prometheus.Counter
	StepDuration        prometheus.Histogram
}

// New creates a new Metrics instance with all workflow module metrics registered.
func New() *Metrics {
	return &Metrics{
		StepsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "identia_workflow_steps_executed_total",
			Help: "Total number of workflow step handler executions, by step",
		}, []string{"step"}),
		ProceduresCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identia_procedures_completed_total",
			Help: "Total number of procedures that reached the complete step",
		}),
		ProceduresErrored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identia_procedures_errored_total",
			Help: "Total number of procedures that ended in the error step",
		}),
		StepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "identia_workflow_step_duration_seconds",
			Help:    "Duration of workflow step handler executions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementStep records one execution of the given step handler.
func (m *Metrics) IncrementStep(step string) {
	m.StepsExecuted.WithLabelValues(step).Inc()
}

// IncrementCompleted records a procedure reaching the complete step.
func (m *Metrics) IncrementCompleted() {
	m.ProceduresCompleted.Inc()
}

// IncrementErrored records a procedure ending in the error step.
func (m *Metrics) IncrementErrored() {
	m.ProceduresErrored.Inc()
}

// ObserveStep records the duration of a step handler execution.
// Call with time.Now() at the start of the handler.
func (m *Metrics) ObserveStep(start time.Time) {
	m.StepDuration.Observe(time.Since(start).Seconds())
}
