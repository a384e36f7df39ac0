// Package metrics exposes Prometheus collectors for the ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bank",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Money-moving operations by type and outcome.",
	}, []string{"operation", "outcome"})

	ledgerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bank",
		Subsystem: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Latency of money-moving operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	storeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bank",
		Subsystem: "store",
		Name:      "transaction_retries_total",
		Help:      "Database transactions retried after a serialization failure or deadlock.",
	})

	cacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bank",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Account cache lookups by result.",
	}, []string{"result"})
)

// ObserveOperation records one ledger operation. outcome is "ok" or an error kind.
func ObserveOperation(operation, outcome string, elapsed time.Duration) {
	ledgerOperations.WithLabelValues(operation, outcome).Inc()
	ledgerDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func IncStoreRetry() {
	storeRetries.Inc()
}

// ObserveCache records "hit", "miss" or "error".
func ObserveCache(result string) {
	cacheResults.WithLabelValues(result).Inc()
}
