package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ResponseCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_response_cache_hits_total",
		Help: "Total number of response cache hits",
	})

	ResponseCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_response_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	ResponseCacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_response_cache_sets_total",
		Help: "Total number of response cache sets",
	})
)
