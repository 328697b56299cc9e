package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UnknownJobType is the job_type label used for types with no registered handler
const UnknownJobType = "unknown"

func init() {
	register(jobsProcessedTotal, jobDurationSeconds, claimConflictsTotal, processRunsTotal)
}

var (
	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobqueue_jobs_processed_total",
			Help: "Jobs attempted by the queue processor, labeled by job type and outcome.",
		},
		[]string{"job_type", "status"}, // 'completed', 'failed'
	)

	jobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobqueue_job_duration_seconds",
			Help:    "Handler execution time per job type.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"job_type"},
	)

	claimConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobqueue_claim_conflicts_total",
			Help: "Claims lost to a concurrent processing pass.",
		},
	)

	processRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobqueue_process_runs_total",
			Help: "Processing passes, labeled by result ('ok', 'error').",
		},
		[]string{"result"},
	)
)

// IncJob counts one attempted job
func IncJob(jobType, status string) {
	jobsProcessedTotal.WithLabelValues(norm(jobType), norm(status)).Inc()
}

// ObserveJobDuration records how long a handler ran
func ObserveJobDuration(jobType string, d time.Duration) {
	jobDurationSeconds.WithLabelValues(norm(jobType)).Observe(d.Seconds())
}

// IncClaimConflict counts a lost claim
func IncClaimConflict() {
	claimConflictsTotal.Inc()
}

// IncProcessRun counts a finished processing pass
func IncProcessRun(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	processRunsTotal.WithLabelValues(result).Inc()
}

func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return UnknownJobType
	}
	return s
}
