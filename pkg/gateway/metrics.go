package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts gateway calls by operation and result
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataviz_gateway_requests_total",
		Help: "Total generation service calls by operation and result",
	}, []string{"operation", "result"})

	// requestDuration tracks gateway call latency
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dataviz_gateway_request_duration_seconds",
		Help:    "Generation service call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 11), // 250ms to ~4m
	}, []string{"operation"})
)

const (
	resultOK          = "ok"
	resultFailed      = "generation_failed"
	resultUnavailable = "unavailable"
)
