package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/cuongbtq/inspection-jobs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *storage.MemoryStore, job domain.Job) {
	t.Helper()
	if job.Payload == nil {
		job.Payload = []byte(`{}`)
	}
	require.NoError(t, store.CreateJob(context.Background(), &job))
}

func TestReporter_GetQueueStatus(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore(storage.WithClock(func() time.Time { return now }))

	started29 := now.Add(-29 * time.Minute)
	started31 := now.Add(-31 * time.Minute)
	started45 := now.Add(-45 * time.Minute)

	seed(t, store, domain.Job{JobID: "p1", JobType: "t", Status: domain.JobStatusPending, MaxRetries: 3, CreatedAt: now.Add(-time.Hour)})
	seed(t, store, domain.Job{JobID: "p2", JobType: "t", Status: domain.JobStatusPending, MaxRetries: 3, CreatedAt: now.Add(-2 * time.Hour)})
	seed(t, store, domain.Job{JobID: "f1", JobType: "t", Status: domain.JobStatusFailed, RetryCount: 1, MaxRetries: 3, CreatedAt: now.Add(-3 * time.Hour)})
	seed(t, store, domain.Job{JobID: "f2", JobType: "t", Status: domain.JobStatusFailed, RetryCount: 3, MaxRetries: 3, CreatedAt: now.Add(-4 * time.Hour)})
	seed(t, store, domain.Job{JobID: "s29", JobType: "t", Status: domain.JobStatusProcessing, MaxRetries: 3, CreatedAt: now.Add(-5 * time.Hour), StartedAt: &started29})
	seed(t, store, domain.Job{JobID: "s31", JobType: "t", Status: domain.JobStatusProcessing, MaxRetries: 3, CreatedAt: now.Add(-6 * time.Hour), StartedAt: &started31})
	seed(t, store, domain.Job{JobID: "s45", JobType: "t", Status: domain.JobStatusProcessing, MaxRetries: 3, CreatedAt: now.Add(-7 * time.Hour), StartedAt: &started45})
	seed(t, store, domain.Job{JobID: "old", JobType: "t", Status: domain.JobStatusCompleted, MaxRetries: 3, CreatedAt: now.Add(-48 * time.Hour)})

	r := NewReporter(store, ReporterConfig{Now: func() time.Time { return now }}, newTestLogger())

	status, err := r.GetQueueStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.QueueSummary{
		Pending:         2,
		RetriableFailed: 1,
		ExhaustedFailed: 1,
		Stuck:           2,
	}, status.Summary)

	assert.Equal(t, []string{"s45", "s31"}, status.StuckJobs)

	recentIDs := make([]string, 0, len(status.RecentJobs))
	for _, job := range status.RecentJobs {
		recentIDs = append(recentIDs, job.JobID)
	}
	assert.Equal(t, []string{"p1", "p2", "f1", "f2", "s29", "s31", "s45"}, recentIDs)
}

func TestReporter_StuckBoundary(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		started time.Duration
		stuck   int
	}{
		{name: "29 minutes is healthy", started: 29 * time.Minute, stuck: 0},
		{name: "exactly 30 minutes is healthy", started: 30 * time.Minute, stuck: 0},
		{name: "31 minutes is stuck", started: 31 * time.Minute, stuck: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			startedAt := now.Add(-tt.started)
			seed(t, store, domain.Job{JobID: "j", JobType: "t", Status: domain.JobStatusProcessing, MaxRetries: 3, CreatedAt: now.Add(-time.Hour), StartedAt: &startedAt})

			r := NewReporter(store, ReporterConfig{Now: func() time.Time { return now }}, newTestLogger())
			status, err := r.GetQueueStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.stuck, status.Summary.Stuck)
			assert.Len(t, status.StuckJobs, tt.stuck)
		})
	}
}

func TestReporter_EmptyQueue(t *testing.T) {
	r := NewReporter(storage.NewMemoryStore(), ReporterConfig{}, newTestLogger())

	status, err := r.GetQueueStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.QueueSummary{}, status.Summary)
	assert.NotNil(t, status.RecentJobs)
	assert.Empty(t, status.RecentJobs)
	assert.NotNil(t, status.StuckJobs)
	assert.Empty(t, status.StuckJobs)
}

func TestReporter_RecentLimit(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		seed(t, store, domain.Job{JobID: id, JobType: "t", Status: domain.JobStatusPending, MaxRetries: 3, CreatedAt: now})
	}

	r := NewReporter(store, ReporterConfig{RecentLimit: 2}, newTestLogger())
	status, err := r.GetQueueStatus(context.Background())
	require.NoError(t, err)
	assert.Len(t, status.RecentJobs, 2)
	assert.Equal(t, 3, status.Summary.Pending)
}

func TestReporter_StoreFailure(t *testing.T) {
	r := NewReporter(brokenStatusStore{}, ReporterConfig{}, newTestLogger())

	status, err := r.GetQueueStatus(context.Background())
	assert.Nil(t, status)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

type brokenStatusStore struct{}

func (brokenStatusStore) CountJobs(context.Context, domain.StatusFilter) (int, error) {
	return 0, errors.New("too many connections")
}

func (brokenStatusStore) ListRecentJobs(context.Context, time.Time, int) ([]domain.Job, error) {
	return nil, errors.New("too many connections")
}

func (brokenStatusStore) ListJobIDs(context.Context, domain.StatusFilter, int) ([]string, error) {
	return nil, errors.New("too many connections")
}
