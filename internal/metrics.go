package internal

import "github.com/prometheus/client_golang/prometheus"

var (
	metricUpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikihop_upstream_requests_total",
			Help: "Requests issued to upstream wiki APIs",
		},
		[]string{"lang"},
	)

	metricSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikihop_searches_total",
			Help: "Completed searches by outcome",
		},
		[]string{"outcome"},
	)

	metricSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wikihop_search_duration_seconds",
			Help:    "Wall-clock search duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	metricBatchesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikihop_batches_in_flight",
			Help: "Outstanding batch fetches across all searches",
		},
	)

	metricPathLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wikihop_path_length",
			Help:    "Length of returned paths, including language hops",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(
		metricUpstreamRequests, metricSearches, metricSearchDuration,
		metricBatchesInFlight, metricPathLength,
	)
}
