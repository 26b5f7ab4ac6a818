package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchVersionOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "search_version",
		Name:      "operations_total",
		Help:      "Search generation counter operations broken down by path (incr, fallback, failed, init, reset).",
	}, []string{"path"})

	indexWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "search",
		Name:      "index_writes_total",
		Help:      "Search index writes broken down by operation and result.",
	}, []string{"op", "result"})

	searchQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "search",
		Name:      "queries_total",
		Help:      "Product searches broken down by result (cached, ok, error, invalid).",
	}, []string{"result"})

	productEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "products",
		Name:      "events_total",
		Help:      "Product write events handled, broken down by kind.",
	}, []string{"kind"})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
