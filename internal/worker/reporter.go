package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/cuongbtq/inspection-jobs/internal/metrics"
)

// StatusStore is the read side of the job record store
type StatusStore interface {
	CountJobs(ctx context.Context, filter domain.StatusFilter) (int, error)
	ListRecentJobs(ctx context.Context, since time.Time, limit int) ([]domain.Job, error)
	ListJobIDs(ctx context.Context, filter domain.StatusFilter, limit int) ([]string, error)
}

// ReporterConfig holds the reporting windows. Zero values fall back to the domain defaults.
type ReporterConfig struct {
	StuckThreshold time.Duration
	RecentWindow   time.Duration
	RecentLimit    int
	Now            func() time.Time
}

// Reporter computes queue health from the store without modifying it
type Reporter struct {
	store          StatusStore
	logger         *slog.Logger
	stuckThreshold time.Duration
	recentWindow   time.Duration
	recentLimit    int
	now            func() time.Time
}

// NewReporter creates a new Reporter
func NewReporter(store StatusStore, cfg ReporterConfig, logger *slog.Logger) *Reporter {
	r := &Reporter{
		store:          store,
		logger:         logger,
		stuckThreshold: cfg.StuckThreshold,
		recentWindow:   cfg.RecentWindow,
		recentLimit:    cfg.RecentLimit,
		now:            cfg.Now,
	}
	if r.stuckThreshold <= 0 {
		r.stuckThreshold = domain.DefaultStuckThreshold
	}
	if r.recentWindow <= 0 {
		r.recentWindow = domain.DefaultRecentWindow
	}
	if r.recentLimit <= 0 {
		r.recentLimit = domain.DefaultRecentLimit
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// GetQueueStatus returns the queue summary, the recent job history and the stuck job ids.
// Counts come from separate queries and may be slightly inconsistent with each other.
func (r *Reporter) GetQueueStatus(ctx context.Context) (*domain.QueueStatus, error) {
	now := r.now()
	stuckBefore := now.Add(-r.stuckThreshold)

	stuckFilter := domain.StatusFilter{Status: domain.JobStatusProcessing, StartedBefore: &stuckBefore}

	var summary domain.QueueSummary
	counts := []struct {
		dest   *int
		filter domain.StatusFilter
	}{
		{&summary.Pending, domain.StatusFilter{Status: domain.JobStatusPending}},
		{&summary.RetriableFailed, domain.StatusFilter{Status: domain.JobStatusFailed, RetriableOnly: true}},
		{&summary.ExhaustedFailed, domain.StatusFilter{Status: domain.JobStatusFailed, ExhaustedOnly: true}},
		{&summary.Stuck, stuckFilter},
	}
	for _, c := range counts {
		n, err := r.store.CountJobs(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		*c.dest = n
	}

	recent, err := r.store.ListRecentJobs(ctx, now.Add(-r.recentWindow), r.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	stuckIDs, err := r.store.ListJobIDs(ctx, stuckFilter, r.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if recent == nil {
		recent = []domain.Job{}
	}
	if stuckIDs == nil {
		stuckIDs = []string{}
	}

	metrics.SetQueueDepth(summary.Pending, summary.RetriableFailed, summary.ExhaustedFailed, summary.Stuck)

	if summary.Stuck > 0 {
		r.logger.Warn("Stuck jobs detected",
			slog.Int("stuck", summary.Stuck),
			slog.Duration("threshold", r.stuckThreshold),
		)
	}

	return &domain.QueueStatus{
		Summary:    summary,
		RecentJobs: recent,
		StuckJobs:  stuckIDs,
	}, nil
}
