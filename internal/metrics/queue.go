package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueJobs) }

var queueJobs = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "jobqueue_jobs",
		Help: "Jobs per queue state as last seen by the status reporter.",
	},
	[]string{"state"}, // 'pending', 'retriable_failed', 'exhausted_failed', 'stuck'
)

// SetQueueDepth publishes the latest queue summary
func SetQueueDepth(pending, retriableFailed, exhaustedFailed, stuck int) {
	queueJobs.WithLabelValues("pending").Set(float64(pending))
	queueJobs.WithLabelValues("retriable_failed").Set(float64(retriableFailed))
	queueJobs.WithLabelValues("exhausted_failed").Set(float64(exhaustedFailed))
	queueJobs.WithLabelValues("stuck").Set(float64(stuck))
}
