// Package metrics defines the Prometheus collectors shared by the server and
// the cache synchronizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration observes API request latency by method, route, and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vitrine",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// CacheHits counts synchronizer reads served from a fresh cache entry.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vitrine",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Reads served from a fresh cache entry.",
	})

	// CacheMisses counts synchronizer reads that triggered a fetch.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vitrine",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Reads that required a network fetch.",
	})

	// OptimisticRollbacks counts optimistic deletes undone after a server failure.
	OptimisticRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vitrine",
		Subsystem: "cache",
		Name:      "optimistic_rollbacks_total",
		Help:      "Optimistic mutations rolled back after a failed server call.",
	})
)
