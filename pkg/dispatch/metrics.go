package dispatch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrTimeout = errors.New("search timed out")

var (
	remoteDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskbrowse_remote_searches_total",
		Help: "Applied remote searches by endpoint",
	}, []string{"endpoint"})
	localDispatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskbrowse_local_filterings_total",
		Help: "Dispatches answered from the local collection",
	})
	supersededResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskbrowse_superseded_responses_total",
		Help: "Search responses discarded because a newer search was issued",
	})
	downgrades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskbrowse_semantic_downgrades_total",
		Help: "Semantic searches retried on the standard endpoint",
	})
	searchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskbrowse_search_errors_total",
		Help: "Searches that failed after retries, by endpoint",
	}, []string{"endpoint"})
	ignoredQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskbrowse_ignored_queries_total",
		Help: "Query changes below the minimum length",
	})
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slaskbrowse_search_duration_seconds",
		Help:    "Time spent waiting for the search api",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
