package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// _operations counts tree operations by kind, operation and result
	// ("changed", "unchanged" or "error").
	_operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hierarchy_operations_total",
		Help: "Tree operations by kind, operation and result",
	}, []string{"kind", "op", "result"})

	// _nodesWritten counts nodes persisted by tree passes.
	_nodesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hierarchy_nodes_written_total",
		Help: "Nodes written by kind and operation",
	}, []string{"kind", "op"})

	// _linearizeDuration tracks how long full linearization passes take.
	_linearizeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hierarchy_linearize_duration_seconds",
		Help:    "Tree sort order recomputation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"kind"})

	// _linearizeSkipped counts passes skipped by the change-gate.
	_linearizeSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hierarchy_linearize_skipped_total",
		Help: "Tree sort order recomputations skipped because nothing changed",
	}, []string{"kind"})

	_cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hierarchy_cache_lookups_total",
		Help: "Read cache lookups by result",
	}, []string{"result"})
)

// observe records an operation's outcome.
func observe(kind Kind, op string, changed bool, err error) {
	result := "unchanged"
	switch {
	case err != nil:
		result = "error"
	case changed:
		result = "changed"
	}
	_operations.WithLabelValues(string(kind), op, result).Inc()
}
