// Package metrics defines Prometheus metrics for triplewalk.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triplewalk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplewalk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplewalk_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	StoreLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplewalk_store_lookups_total",
			Help: "Store round-trips by backend, operation and outcome",
		},
		[]string{"backend", "op", "outcome"},
	)

	StoreLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triplewalk_store_lookup_duration_seconds",
			Help:    "Store round-trip latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"backend", "op"},
	)

	WalkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triplewalk_walk_duration_seconds",
			Help:    "Time from opening a cursor to closing it",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	WalkPathsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "triplewalk_walk_paths_total",
			Help: "Paths emitted by cursors",
		},
	)

	ClosureRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "triplewalk_closure_records_total",
			Help: "Nodes discovered by recursive closures",
		},
	)

	TriplesLoadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "triplewalk_triples_loaded_total",
			Help: "New triples written by bulk loads",
		},
	)

	StreamConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "triplewalk_stream_connections",
			Help: "Active WebSocket cursor streams",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		StoreLookupsTotal, StoreLookupDuration,
		WalkDuration, WalkPathsTotal, ClosureRecordsTotal,
		TriplesLoadedTotal, StreamConnections,
	)
}
