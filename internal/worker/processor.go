package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/cuongbtq/inspection-jobs/internal/metrics"
)

// outcomeWriteTimeout bounds the write that records a finished attempt
const outcomeWriteTimeout = 10 * time.Second

// Store is the job record store as seen by the processor
type Store interface {
	FindEligibleJobs(ctx context.Context, limit int) ([]domain.Job, error)
	ClaimJob(ctx context.Context, jobID, expectedStatus string, expectedRetryCount int) (bool, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, errorMessage string) error
}

// JobDispatcher executes a job payload for its type
type JobDispatcher interface {
	Dispatch(ctx context.Context, jobType string, payload json.RawMessage) error
}

// Processor runs bounded, externally triggered processing passes over the queue.
// It keeps no state between calls.
type Processor struct {
	store      Store
	dispatcher JobDispatcher
	logger     *slog.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(store Store, dispatcher JobDispatcher, logger *slog.Logger) *Processor {
	return &Processor{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ProcessQueue attempts at most maxJobs eligible jobs, oldest first, each at most once.
// Handler failures are recorded on the job and never returned. A store failure
// stops the pass and is returned together with the counts accumulated so far.
func (p *Processor) ProcessQueue(ctx context.Context, maxJobs int) (domain.ProcessResult, error) {
	var result domain.ProcessResult

	if maxJobs < 1 {
		p.logger.Debug("Processing pass skipped - non-positive batch size",
			slog.Int("max_jobs", maxJobs),
		)
		return result, nil
	}

	jobs, err := p.store.FindEligibleJobs(ctx, maxJobs)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		metrics.IncProcessRun(err)
		return result, err
	}

	p.logger.Info("Processing pass started",
		slog.Int("max_jobs", maxJobs),
		slog.Int("eligible", len(jobs)),
	)

	for i := range jobs {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("Processing pass interrupted",
				slog.Int("processed", result.Processed),
				slog.String("error", err.Error()),
			)
			metrics.IncProcessRun(err)
			return result, err
		}

		if err := p.processJob(ctx, &jobs[i], &result); err != nil {
			p.logger.Error("Processing pass aborted - job store failure",
				slog.String("job_id", jobs[i].JobID),
				slog.Int("processed", result.Processed),
				slog.String("error", err.Error()),
			)
			metrics.IncProcessRun(err)
			return result, err
		}
	}

	p.logger.Info("Processing pass finished",
		slog.Int("processed", result.Processed),
		slog.Int("successful", result.Successful),
		slog.Int("failed", result.Failed),
	)
	metrics.IncProcessRun(nil)

	return result, nil
}

// processJob claims, runs and records a single job. Only store failures are returned.
func (p *Processor) processJob(ctx context.Context, job *domain.Job, result *domain.ProcessResult) error {
	// Step 1: Claim (pending/failed -> processing), compare-and-set on the observed row
	claimed, err := p.store.ClaimJob(ctx, job.JobID, job.Status, job.RetryCount)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if !claimed {
		p.logger.Debug("Job already claimed, skipping",
			slog.String("job_id", job.JobID),
		)
		metrics.IncClaimConflict()
		return nil
	}

	// Step 2: Run the handler
	start := time.Now()
	runErr := p.dispatcher.Dispatch(ctx, job.JobType, job.Payload)
	label := jobTypeLabel(job.JobType, runErr)
	metrics.ObserveJobDuration(label, time.Since(start))

	// Step 3: Record the outcome. The claim is committed, so the write must not
	// be dropped when the caller goes away mid-handler.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomeWriteTimeout)
	defer cancel()

	if runErr != nil {
		p.logger.Warn("Job execution failed",
			slog.String("job_id", job.JobID),
			slog.String("job_type", job.JobType),
			slog.Int("retry_count", job.RetryCount+1),
			slog.Int("max_retries", job.MaxRetries),
			slog.String("error", runErr.Error()),
		)
		if err := p.record(p.store.MarkFailed(wctx, job.JobID, runErr.Error()), job.JobID); err != nil {
			return err
		}
		result.Failed++
		metrics.IncJob(label, domain.JobStatusFailed)
	} else {
		p.logger.Info("Job completed successfully",
			slog.String("job_id", job.JobID),
			slog.String("job_type", job.JobType),
			slog.Duration("duration", time.Since(start)),
		)
		if err := p.record(p.store.MarkCompleted(wctx, job.JobID), job.JobID); err != nil {
			return err
		}
		result.Successful++
		metrics.IncJob(label, domain.JobStatusCompleted)
	}

	result.Processed++
	return nil
}

// jobTypeLabel keeps unregistered job types out of metric labels
func jobTypeLabel(jobType string, runErr error) string {
	if errors.Is(runErr, domain.ErrUnknownJobType) {
		return metrics.UnknownJobType
	}
	return jobType
}

// record classifies the error of an outcome write
func (p *Processor) record(err error, jobID string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrJobNotProcessing) {
		// Row changed under us (e.g. edited by an operator); the attempt still happened.
		p.logger.Warn("Job outcome not recorded - job left processing state",
			slog.String("job_id", jobID),
		)
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
