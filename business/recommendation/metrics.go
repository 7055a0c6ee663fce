package recommendation

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecommendationsServedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Count of recommended items returned, by signal source.",
		},
		[]string{"source"},
	)

	ColdStartRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cold_start_requests_total",
			Help: "Count of recommend calls served entirely by the cold-start handler, by reason.",
		},
		[]string{"reason"},
	)

	TrainingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_training_runs_total",
			Help: "Count of training runs by outcome.",
		},
		[]string{"status"},
	)

	TrainingDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_training_duration_seconds",
		Help:    "Wall time of a full training run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	ActiveModelQuality = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommendation_active_model_quality",
			Help: "Quality metrics of the active artifact.",
		},
		[]string{"model_type", "metric"},
	)
)

func init() {
	prometheus.MustRegister(
		RecommendationsServedTotal,
		ColdStartRequestsTotal,
		TrainingRunsTotal,
		TrainingDurationSeconds,
		ActiveModelQuality,
	)
}

func recordModelQuality(meta ArtifactMetadata) {
	for name, v := range meta.QualityMetrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ActiveModelQuality.WithLabelValues(meta.ModelType, name).Set(v)
	}
}
