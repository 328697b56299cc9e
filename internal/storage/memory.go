package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
)

// MemoryStore keeps jobs in process memory. It honours the same claim
// semantics as Storage and backs local runs and tests.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	now  func() time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now for timestamps written by the store
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		jobs: make(map[string]*domain.Job),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob stores a copy of job
func (s *MemoryStore) CreateJob(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.JobID]; exists {
		return fmt.Errorf("failed to create job: duplicate job_id %s", job.JobID)
	}

	stored := copyJob(job)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	s.jobs[job.JobID] = stored
	return nil
}

// GetJobByID returns a copy of the job
func (s *MemoryStore) GetJobByID(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return copyJob(job), nil
}

// ListJobs mirrors Storage.ListJobs, including the extra look-ahead row
func (s *MemoryStore) ListJobs(_ context.Context, filter JobFilter) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.sortedLocked(newestFirst)
	out := make([]domain.Job, 0, filter.PageSize+1)
	for _, job := range jobs {
		if filter.JobType != "" && job.JobType != filter.JobType {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Cursor != nil && !before(job, filter.Cursor.CreatedAt, filter.Cursor.JobID) {
			continue
		}
		out = append(out, *copyJob(job))
		if len(out) == filter.PageSize+1 {
			break
		}
	}
	return out, nil
}

// FindEligibleJobs returns up to limit eligible jobs, oldest first
func (s *MemoryStore) FindEligibleJobs(_ context.Context, limit int) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Job
	for _, job := range s.sortedLocked(oldestFirst) {
		if len(out) >= limit {
			break
		}
		if job.IsEligible() {
			out = append(out, *copyJob(job))
		}
	}
	return out, nil
}

// ClaimJob performs the compare-and-set transition to processing
func (s *MemoryStore) ClaimJob(_ context.Context, jobID, expectedStatus string, expectedRetryCount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != expectedStatus || job.RetryCount != expectedRetryCount || !job.IsEligible() {
		return false, nil
	}

	now := s.now()
	job.Status = domain.JobStatusProcessing
	job.StartedAt = &now
	job.UpdatedAt = now
	return true, nil
}

// MarkCompleted records a successful run
func (s *MemoryStore) MarkCompleted(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobStatusProcessing {
		return domain.ErrJobNotProcessing
	}

	now := s.now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	job.ErrorMessage = nil
	job.UpdatedAt = now
	return nil
}

// MarkFailed records a failed run
func (s *MemoryStore) MarkFailed(_ context.Context, jobID, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobStatusProcessing {
		return domain.ErrJobNotProcessing
	}

	job.Status = domain.JobStatusFailed
	job.RetryCount++
	job.ErrorMessage = &errorMessage
	job.UpdatedAt = s.now()
	return nil
}

// CountJobs counts jobs matching filter
func (s *MemoryStore) CountJobs(_ context.Context, filter domain.StatusFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, job := range s.jobs {
		if filter.Matches(job) {
			count++
		}
	}
	return count, nil
}

// ListJobIDs returns ids matching filter, earliest claim first
func (s *MemoryStore) ListJobIDs(_ context.Context, filter domain.StatusFilter, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.sortedLocked(func(a, b *domain.Job) bool {
		switch {
		case a.StartedAt != nil && b.StartedAt != nil && !a.StartedAt.Equal(*b.StartedAt):
			return a.StartedAt.Before(*b.StartedAt)
		case a.StartedAt != nil && b.StartedAt == nil:
			return true
		case a.StartedAt == nil && b.StartedAt != nil:
			return false
		}
		return oldestFirst(a, b)
	})

	var ids []string
	for _, job := range jobs {
		if len(ids) >= limit {
			break
		}
		if filter.Matches(job) {
			ids = append(ids, job.JobID)
		}
	}
	return ids, nil
}

// ListRecentJobs returns jobs created at or after since, newest first
func (s *MemoryStore) ListRecentJobs(_ context.Context, since time.Time, limit int) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Job
	for _, job := range s.sortedLocked(newestFirst) {
		if len(out) >= limit {
			break
		}
		if !job.CreatedAt.Before(since) {
			out = append(out, *copyJob(job))
		}
	}
	return out, nil
}

func (s *MemoryStore) sortedLocked(less func(a, b *domain.Job) bool) []*domain.Job {
	jobs := make([]*domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return less(jobs[i], jobs[j]) })
	return jobs
}

func oldestFirst(a, b *domain.Job) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.JobID < b.JobID
}

func newestFirst(a, b *domain.Job) bool {
	return oldestFirst(b, a)
}

// before reports whether job sorts strictly after the cursor in newest-first order
func before(job *domain.Job, createdAt time.Time, jobID string) bool {
	if !job.CreatedAt.Equal(createdAt) {
		return job.CreatedAt.Before(createdAt)
	}
	return job.JobID < jobID
}

func copyJob(job *domain.Job) *domain.Job {
	c := *job
	if job.Payload != nil {
		c.Payload = append([]byte(nil), job.Payload...)
	}
	if job.StartedAt != nil {
		t := *job.StartedAt
		c.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	if job.ErrorMessage != nil {
		m := *job.ErrorMessage
		c.ErrorMessage = &m
	}
	return &c
}
