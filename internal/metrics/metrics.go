package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "organmatch_scores_total",
			Help: "Total number of donor/recipient pairs scored, by scoring method",
		},
		[]string{"method"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "organmatch_fallbacks_total",
			Help: "Total number of pairs scored by the fallback scorer, by reason",
		},
		[]string{"reason"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "organmatch_ranking_duration_seconds",
			Help:    "Duration of a ranking call in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	CandidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "organmatch_candidates_returned",
			Help:    "Number of candidates returned per ranking call",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "organmatch_training_runs_total",
			Help: "Total number of training runs, by outcome",
		},
		[]string{"outcome"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "organmatch_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	ModelLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "organmatch_model_loaded_timestamp_seconds",
			Help: "Training time of the loaded model as a unix timestamp; 0 when no model is loaded",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "organmatch_http_requests_total",
			Help: "Total number of HTTP requests, by route and status",
		},
		[]string{"route", "status"},
	)
)
