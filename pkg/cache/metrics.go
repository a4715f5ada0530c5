package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits tracks cache hits.
	Hits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghinsight_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// Misses tracks cache misses, including reads of expired entries.
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghinsight_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// Evictions tracks lazy evictions of expired entries.
	Evictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghinsight_cache_evictions_total",
			Help: "Total number of expired entries evicted on read",
		},
	)
)
