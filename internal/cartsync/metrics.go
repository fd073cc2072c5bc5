package cartsync

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartsync",
			Name:      "operations_total",
			Help:      "Cart synchronizer operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cartsync",
			Name:      "operation_duration_seconds",
			Help:      "Cart synchronizer operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)
)

// RegisterMetrics registers the synchronizer collectors with the default
// prometheus registry. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operations, operationDuration)
	})
}

func recordOperation(op Operation, outcome string, d time.Duration) {
	operations.WithLabelValues(op.String(), outcome).Inc()
	operationDuration.WithLabelValues(op.String(), outcome).Observe(d.Seconds())
}
