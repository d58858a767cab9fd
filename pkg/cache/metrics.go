package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by backend (memory, redis).
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"backend"},
	)

	// cacheMisses tracks cache misses by backend.
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"backend"},
	)

	// cacheErrors tracks cache operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"},
	)
)
