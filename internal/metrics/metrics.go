// Package metrics exposes Prometheus collectors for the lifecycle engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/groupshare/internal/apperr"
)

const namespace = "groupshare"

// Metrics holds the engine's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	reaped     *prometheus.CounterVec
	sweeps     *prometheus.CounterVec
	reminders  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Lifecycle operations by name and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Lifecycle operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrent_modification_retries_total",
			Help:      "Operations retried after a concurrent modification.",
		}, []string{"op"}),
		reaped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reaper",
			Name:      "rows_total",
			Help:      "Rows finalized by the reaping sweeps.",
		}, []string{"kind"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reaper",
			Name:      "sweeps_total",
			Help:      "Reaping sweeps by name and outcome.",
		}, []string{"sweep", "outcome"}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reaper",
			Name:      "deletion_reminders_total",
			Help:      "Deletion reminders emitted.",
		}),
	}

	reg.MustRegister(m.operations, m.duration, m.retries, m.reaped, m.sweeps, m.reminders)
	return m
}

// Outcome labels an operation result by its error kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}

// ObserveOperation records one call of op that started at start.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, Outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveRetry records a retry of op after a concurrent modification.
func (m *Metrics) ObserveRetry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

// ObserveSweep records one reaping sweep and the rows it finalized, keyed by row kind.
func (m *Metrics) ObserveSweep(sweep string, rows map[string]int, err error) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(sweep, Outcome(err)).Inc()
	for kind, n := range rows {
		if n > 0 {
			m.reaped.WithLabelValues(kind).Add(float64(n))
		}
	}
}

// ObserveReminders records n emitted deletion reminders.
func (m *Metrics) ObserveReminders(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reminders.Add(float64(n))
}
