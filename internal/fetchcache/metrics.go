package fetchcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_fetch_cache_hits_total",
			Help: "Fetches served from a fresh cache entry without a network call.",
		},
		[]string{"service"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_fetch_cache_misses_total",
			Help: "Fetches that required at least one network attempt.",
		},
		[]string{"service"},
	)

	staleFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_fetch_stale_fallbacks_total",
			Help: "Fetches served from an expired cache entry after all attempts failed.",
		},
		[]string{"service"},
	)

	fetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_fetch_failures_total",
			Help: "Fetches that produced no data: all attempts failed and no fallback existed.",
		},
		[]string{"service"},
	)
)
