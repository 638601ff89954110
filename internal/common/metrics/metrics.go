// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// Matching-specific series: candidate pool sizes and the score
	// distribution of the top-ranked result, for tuning the weighting
	// policy in production.
	MatchCandidatesScored = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_candidates_scored",
			Help:    "Number of candidates scored per match request",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250},
		},
		[]string{"urgency"},
	)

	MatchTopScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_top_score",
			Help:    "Overall score of the best-ranked provider",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"urgency"},
	)

	MatchEmptyResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_empty_results_total",
			Help: "Match requests that produced no ranked providers",
		},
		[]string{"urgency"},
	)
)
