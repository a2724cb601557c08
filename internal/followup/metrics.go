package followup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followuplab_generations_total",
			Help: "Follow-up generation attempts by model and outcome.",
		},
		[]string{"model", "status"}, // status: success, empty, error
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "followuplab_generation_duration_seconds",
			Help:    "Latency of follow-up generation calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	generationCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followuplab_generation_cost_usd_total",
			Help: "Estimated spend on follow-up generation.",
		},
		[]string{"model"},
	)
)
