package domain

import (
	"encoding/json"
	"time"
)

// Job is one unit of deferred work stored in the jobs table
type Job struct {
	JobID        string          `db:"job_id" json:"job_id"`
	JobType      string          `db:"job_type" json:"job_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	MaxRetries   int             `db:"max_retries" json:"max_retries"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	StartedAt    *time.Time      `db:"started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// IsRetriable reports whether a failed job may still be attempted again
func (j *Job) IsRetriable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// IsEligible reports whether the job may be claimed by a processing pass
func (j *Job) IsEligible() bool {
	return j.Status == JobStatusPending || j.IsRetriable()
}

// IsStuck reports whether the job has been processing for longer than threshold.
// A job claimed exactly threshold ago is not stuck.
func (j *Job) IsStuck(now time.Time, threshold time.Duration) bool {
	if j.Status != JobStatusProcessing || j.StartedAt == nil {
		return false
	}
	return j.StartedAt.Before(now.Add(-threshold))
}

// StatusFilter selects jobs for the reporting queries
type StatusFilter struct {
	Status string

	// RetriableOnly restricts failed jobs to those with retry_count < max_retries
	RetriableOnly bool

	// ExhaustedOnly restricts failed jobs to those with retry_count >= max_retries
	ExhaustedOnly bool

	// StartedBefore, when set, keeps only jobs whose started_at is strictly earlier
	StartedBefore *time.Time
}

// Matches applies the filter to a single job
func (f StatusFilter) Matches(j *Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.RetriableOnly && j.RetryCount >= j.MaxRetries {
		return false
	}
	if f.ExhaustedOnly && j.RetryCount < j.MaxRetries {
		return false
	}
	if f.StartedBefore != nil {
		if j.StartedAt == nil || !j.StartedAt.Before(*f.StartedBefore) {
			return false
		}
	}
	return true
}

// QueueSummary holds the headline counts of the queue
type QueueSummary struct {
	Pending         int `json:"pending"`
	RetriableFailed int `json:"retriable_failed"`
	ExhaustedFailed int `json:"exhausted_failed"`
	Stuck           int `json:"stuck"`
}

// QueueStatus is the observability view returned by the status reporter
type QueueStatus struct {
	Summary    QueueSummary `json:"summary"`
	RecentJobs []Job        `json:"recent_jobs"`
	StuckJobs  []string     `json:"stuck_jobs"`
}

// ProcessResult counts the outcomes of one processing pass
type ProcessResult struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// TriggerMessage is the broker message asking a worker to run a processing pass
type TriggerMessage struct {
	MaxJobs int `json:"max_jobs"`
}
