// Package metrics exposes prometheus collectors for test executions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "rxlaunch"

// Recorder records execution outcomes. The zero value is not usable; build
// one with New.
type Recorder struct {
	executionsTotal   *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	stepsTotal        *prometheus.CounterVec
	executionDuration prometheus.Histogram
	inFlight          prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses the default
// prometheus registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		executionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "executions_total",
			Help:      "Count of finished test executions by overall status",
		}, []string{"status"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Count of failed executions by error kind",
		}, []string{"kind"}),
		stepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "steps_total",
			Help:      "Count of reported steps by status",
		}, []string{"status"}),
		executionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "execution_duration_seconds",
			Help:      "Wall time of test executions",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "executions_in_flight",
			Help:      "Number of executions currently running",
		}),
	}
}

// Started marks an execution as in flight.
func (r *Recorder) Started() {
	r.inFlight.Inc()
}

// RecordExecution records a finished execution and its step statuses.
func (r *Recorder) RecordExecution(status string, d time.Duration, steps map[string]int) {
	r.inFlight.Dec()
	r.executionsTotal.WithLabelValues(status).Inc()
	r.executionDuration.Observe(d.Seconds())
	for st, n := range steps {
		r.stepsTotal.WithLabelValues(st).Add(float64(n))
	}
}

// RecordError records an execution that ended with an error of the given kind.
func (r *Recorder) RecordError(kind string) {
	r.inFlight.Dec()
	if kind == "" {
		kind = "unknown"
	}
	r.errorsTotal.WithLabelValues(kind).Inc()
}
