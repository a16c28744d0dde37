package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for MongoDB connection attempts
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_backend_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rag_backend_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	MongoDBConnectionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_backend_mongodb_connection_attempts_total",
			Help: "Total number of MongoDB connection attempts by outcome",
		},
		[]string{"outcome"},
	)

	MongoDBConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rag_backend_mongodb_connected",
			Help: "1 once the MongoDB connection is established, 0 otherwise",
		},
	)
)

// Handler serves the default registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}
