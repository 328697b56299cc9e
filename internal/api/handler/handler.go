package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/cuongbtq/inspection-jobs/internal/storage"
)

// JobStore is the producer side of the job record store
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJobByID(ctx context.Context, jobID string) (*domain.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]domain.Job, error)
}

// QueueProcessor runs one processing pass
type QueueProcessor interface {
	ProcessQueue(ctx context.Context, maxJobs int) (domain.ProcessResult, error)
}

// StatusReporter reports queue health
type StatusReporter interface {
	GetQueueStatus(ctx context.Context) (*domain.QueueStatus, error)
}

// JobTypeRegistry tells which job types can be enqueued
type JobTypeRegistry interface {
	MaxRetries(jobType string) (int, bool)
	JobTypes() []string
}

// TriggerPublisher asks the worker service for a processing pass
type TriggerPublisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// QueueLimits bounds the batch size accepted by the process endpoint
type QueueLimits struct {
	DefaultBatchSize int
	MaxBatchSize     int
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Store     JobStore
	Processor QueueProcessor
	Reporter  StatusReporter
	Registry  JobTypeRegistry
	// Triggers is optional; without it enqueued jobs wait for the next external trigger
	Triggers TriggerPublisher
	Limits   QueueLimits
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	store     JobStore
	processor QueueProcessor
	reporter  StatusReporter
	registry  JobTypeRegistry
	triggers  TriggerPublisher
	limits    QueueLimits
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	limits := deps.Limits
	if limits.DefaultBatchSize <= 0 {
		limits.DefaultBatchSize = domain.DefaultBatchSize
	}
	if limits.MaxBatchSize <= 0 {
		limits.MaxBatchSize = domain.DefaultMaxBatchSize
	}

	return &JobHandler{
		logger:    deps.Logger,
		store:     deps.Store,
		processor: deps.Processor,
		reporter:  deps.Reporter,
		registry:  deps.Registry,
		triggers:  deps.Triggers,
		limits:    limits,
	}
}
