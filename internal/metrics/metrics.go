// Package metrics records transformer activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the transformer metrics. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	Conversions  *prometheus.CounterVec
	Persists     *prometheus.CounterVec
	PersistTime  *prometheus.HistogramVec
	Children     *prometheus.CounterVec
	Transactions *prometheus.CounterVec
	CycleSkips   prometheus.Counter
}

// New creates a recorder registered on its own registry.
func New(namespace string) *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		Conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of field map conversions",
			},
			[]string{"definition", "direction", "status"},
		),
		Persists: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persists_total",
				Help:      "Total number of record creates and updates",
			},
			[]string{"definition", "operation", "status"},
		),
		PersistTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persist_duration_seconds",
				Help:      "Record persistence duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"definition", "operation"},
		),
		Children: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "children_total",
				Help:      "Total number of child transformers built from relations",
			},
			[]string{"definition", "accessor"},
		),
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Total number of atomic collection dispatches",
			},
			[]string{"status"},
		),
		CycleSkips: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycle_skips_total",
				Help:      "Total number of nodes skipped because they were already visited",
			},
		),
	}

	registry.MustRegister(
		r.Conversions,
		r.Persists,
		r.PersistTime,
		r.Children,
		r.Transactions,
		r.CycleSkips,
	)

	return r
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}

	return r.registry
}

// Conversion records one ToModel or ToData run.
func (r *Recorder) Conversion(definition, direction string, err error) {
	if r == nil {
		return
	}

	r.Conversions.WithLabelValues(definition, direction, status(err)).Inc()
}

// Persist records one create or update.
func (r *Recorder) Persist(definition, operation string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}

	r.Persists.WithLabelValues(definition, operation, status(err)).Inc()
	r.PersistTime.WithLabelValues(definition, operation).Observe(elapsed.Seconds())
}

// Child records a child transformer built for a relation accessor.
func (r *Recorder) Child(definition, accessor string) {
	if r == nil {
		return
	}

	r.Children.WithLabelValues(definition, accessor).Inc()
}

// Transaction records an atomic dispatch outcome.
func (r *Recorder) Transaction(err error) {
	if r == nil {
		return
	}

	r.Transactions.WithLabelValues(status(err)).Inc()
}

// CycleSkip records a node skipped by the cycle guard.
func (r *Recorder) CycleSkip() {
	if r == nil {
		return
	}

	r.CycleSkips.Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
