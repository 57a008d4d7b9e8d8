// Package metrics provides Prometheus metrics for stackfeed.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts client cache lookups by result (hit or miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackfeed",
			Name:      "cache_lookups_total",
			Help:      "Total number of client cache lookups",
		},
		[]string{"result"},
	)

	// CacheEvictions counts entries evicted from the client cache.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stackfeed",
			Name:      "cache_evictions_total",
			Help:      "Total number of evicted cache entries",
		},
	)

	// UpstreamRequests counts dispatched upstream requests by outcome.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackfeed",
			Name:      "upstream_requests_total",
			Help:      "Total number of dispatched upstream requests",
		},
		[]string{"outcome"},
	)

	// UpstreamDuration measures upstream request duration.
	UpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stackfeed",
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ThrottleWait measures how long requests waited on the throttle.
	ThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stackfeed",
			Name:      "throttle_wait_seconds",
			Help:      "Time spent waiting for the outbound throttle in seconds",
			Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// HTTPRequests counts served API requests by route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackfeed",
			Name:      "http_requests_total",
			Help:      "Total number of served HTTP requests",
		},
		[]string{"route", "status"},
	)

	// HTTPDuration measures served API request duration by route.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stackfeed",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of served HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Degradations counts degraded parts of crawls by part.
	Degradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackfeed",
			Name:      "degradations_total",
			Help:      "Total number of degraded crawl parts",
		},
		[]string{"part"},
	)
)

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}

	CacheLookups.WithLabelValues("miss").Inc()
}

// RecordUpstream records a dispatched upstream request.
func RecordUpstream(outcome string, seconds float64) {
	UpstreamRequests.WithLabelValues(outcome).Inc()
	UpstreamDuration.Observe(seconds)
}

// RecordDegradation records a degraded crawl part.
func RecordDegradation(part string) {
	Degradations.WithLabelValues(part).Inc()
}

// RecordHTTP records a served API request.
func RecordHTTP(route string, status int, seconds float64) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(seconds)
}
