package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medgas_client_requests_total",
		Help: "Outbound API calls by method and status (\"error\" when no response was received).",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medgas_client_request_duration_seconds",
		Help:    "Latency of outbound API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	invalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medgas_session_invalidations_total",
		Help: "Sessions torn down after a 401 response.",
	})
)
