package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJob(t *testing.T, s *MemoryStore, id string, createdAt time.Time, status string, retryCount, maxRetries int) {
	t.Helper()
	require.NoError(t, s.CreateJob(context.Background(), &domain.Job{
		JobID:      id,
		JobType:    "noop",
		Payload:    []byte(`{}`),
		Status:     status,
		RetryCount: retryCount,
		MaxRetries: maxRetries,
		CreatedAt:  createdAt,
	}))
}

func TestMemoryStore_FindEligibleJobs(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore()

	seedJob(t, s, "c", base.Add(3*time.Minute), domain.JobStatusPending, 0, 3)
	seedJob(t, s, "a", base.Add(1*time.Minute), domain.JobStatusPending, 0, 3)
	seedJob(t, s, "b", base.Add(2*time.Minute), domain.JobStatusFailed, 1, 3)
	seedJob(t, s, "d", base, domain.JobStatusFailed, 3, 3)
	seedJob(t, s, "e", base, domain.JobStatusCompleted, 0, 3)

	jobs, err := s.FindEligibleJobs(context.Background(), 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.JobID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	jobs, err = s.FindEligibleJobs(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestMemoryStore_ClaimJob(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time { return now }))
	seedJob(t, s, "job-1", now, domain.JobStatusPending, 0, 3)

	ok, err := s.ClaimJob(context.Background(), "job-1", domain.JobStatusPending, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ClaimJob(context.Background(), "job-1", domain.JobStatusPending, 0)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	job, err := s.GetJobByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
	require.NotNil(t, job.StartedAt)
	assert.True(t, job.StartedAt.Equal(now))
}

func TestMemoryStore_ClaimJob_StaleRetryCount(t *testing.T) {
	s := NewMemoryStore()
	seedJob(t, s, "job-1", time.Now(), domain.JobStatusFailed, 2, 3)

	ok, err := s.ClaimJob(context.Background(), "job-1", domain.JobStatusFailed, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Outcomes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedJob(t, s, "job-1", time.Now(), domain.JobStatusPending, 0, 3)

	assert.ErrorIs(t, s.MarkCompleted(ctx, "job-1"), domain.ErrJobNotProcessing)

	ok, err := s.ClaimJob(ctx, "job-1", domain.JobStatusPending, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.MarkFailed(ctx, "job-1", "first failure"))

	job, err := s.GetJobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "first failure", *job.ErrorMessage)

	ok, err = s.ClaimJob(ctx, "job-1", domain.JobStatusFailed, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.MarkCompleted(ctx, "job-1"))

	job, err = s.GetJobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Nil(t, job.ErrorMessage)
	assert.NotNil(t, job.CompletedAt)
}

func TestMemoryStore_ListJobs_Pagination(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		seedJob(t, s, fmt.Sprintf("job-%d", i), base.Add(time.Duration(i)*time.Minute), domain.JobStatusPending, 0, 3)
	}

	page, err := s.ListJobs(context.Background(), JobFilter{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 3, "one look-ahead row")
	assert.Equal(t, "job-4", page[0].JobID)
	assert.Equal(t, "job-3", page[1].JobID)

	page, err = s.ListJobs(context.Background(), JobFilter{
		PageSize: 2,
		Cursor:   &JobCursor{CreatedAt: page[1].CreatedAt, JobID: page[1].JobID},
	})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "job-2", page[0].JobID)
}

func TestMemoryStore_Reporting(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	ctx := context.Background()

	seedJob(t, s, "old", now.Add(-48*time.Hour), domain.JobStatusCompleted, 0, 3)
	seedJob(t, s, "new", now.Add(-time.Hour), domain.JobStatusPending, 0, 3)
	seedJob(t, s, "newer", now.Add(-time.Minute), domain.JobStatusPending, 0, 3)

	recent, err := s.ListRecentJobs(ctx, now.Add(-24*time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "newer", recent[0].JobID)
	assert.Equal(t, "new", recent[1].JobID)

	count, err := s.CountJobs(ctx, domain.StatusFilter{Status: domain.JobStatusPending})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStore_CreateJob_Duplicate(t *testing.T) {
	s := NewMemoryStore()
	seedJob(t, s, "job-1", time.Now(), domain.JobStatusPending, 0, 3)

	err := s.CreateJob(context.Background(), &domain.Job{JobID: "job-1"})
	assert.Error(t, err)
}
