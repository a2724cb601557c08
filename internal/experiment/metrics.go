package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "followuplab_experiment_runs_total",
		Help: "Experiment runs executed.",
	})
	casesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followuplab_experiment_cases_total",
			Help: "Cases processed by experiment runs, by outcome.",
		},
		[]string{"outcome"}, // generated, empty, clear_failed, save_failed
	)
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "followuplab_experiment_run_duration_seconds",
		Help:    "Wall time of experiment runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
