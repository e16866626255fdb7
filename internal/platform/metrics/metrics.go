// Package metrics holds the prometheus collectors shared by the store and
// lock layers. Collectors register with the default registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyvault_store_operations_total",
		Help: "Session store operations by operation and result",
	}, []string{"op", "result"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studyvault_store_operation_duration_seconds",
		Help:    "Session store operation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	lockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studyvault_lock_wait_seconds",
		Help:    "Time spent waiting for a date lock",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	lockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyvault_lock_timeouts_total",
		Help: "Lock acquisitions that gave up after exhausting retries",
	})

	staleLocksRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyvault_stale_locks_removed_total",
		Help: "Lock files removed because they outlived the stale threshold",
	})
)

// ObserveStoreOp records one store operation. Pass the operation's error.
func ObserveStoreOp(op string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperations.WithLabelValues(op, result).Inc()
	storeDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func ObserveLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}

func IncLockTimeout() {
	lockTimeouts.Inc()
}

func IncStaleLockRemoved() {
	staleLocksRemoved.Inc()
}
