package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the Recommend HTTP handler, cold or warm
	RecommendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommendation_http_latency_seconds",
		Help:    "Latency of the recommendation handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	// Total number of recommend requests by response status class
	RecommendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_http_requests_total",
		Help: "Total number of recommendation requests",
	}, []string{"handler", "code"})
)

func Init() {
	prometheus.MustRegister(
		RecommendLatency,
		RecommendRequests,
	)
}
