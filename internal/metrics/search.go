package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "realestate",
			Name:      "search_cache_total",
			Help:      "Result cache lookups by cache and outcome",
		},
		[]string{"cache", "result"}, // result: hit / miss / error
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "realestate",
			Name:      "search_duration_seconds",
			Help:      "Time spent evaluating a search against the store",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"}, // filter, radius, nearby, similar, saved_search
	)

	SavedSearchMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "realestate",
			Name:      "saved_search_matches_total",
			Help:      "New properties matched by saved searches",
		},
	)
)

func init() {
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SavedSearchMatchesTotal)
}

// ObserveSearch records the time elapsed since start for a search kind.
func ObserveSearch(kind string, start time.Time) {
	SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// CacheResult records one cache lookup outcome.
func CacheResult(cache, result string) {
	SearchCacheTotal.WithLabelValues(cache, result).Inc()
}
