package domain

import "time"

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	// DefaultBatchSize is used when a caller does not pass maxJobs
	DefaultBatchSize = 10

	// DefaultMaxBatchSize caps maxJobs for a single processing pass
	DefaultMaxBatchSize = 100

	// DefaultMaxRetries is applied to jobs whose type registers no default
	DefaultMaxRetries = 3

	// DefaultStuckThreshold is how long a job may stay processing before it is reported stuck
	DefaultStuckThreshold = 30 * time.Minute

	// DefaultRecentWindow bounds the recent job history in the queue status
	DefaultRecentWindow = 24 * time.Hour

	// DefaultRecentLimit caps recent and stuck job listings
	DefaultRecentLimit = 100
)

// ValidStatus reports whether s is one of the known job statuses
func ValidStatus(s string) bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}
