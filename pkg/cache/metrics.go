package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of cache lookups broken down by hit/miss.",
	}, []string{"result"})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "cache",
		Name:      "errors_total",
		Help:      "Total number of cache backend failures absorbed, broken down by operation.",
	}, []string{"op"})
)

func recordLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(result).Inc()
}

func recordError(op string) {
	if op == "" {
		op = "other"
	}
	cacheErrors.WithLabelValues(op).Inc()
}
