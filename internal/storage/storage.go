package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/jmoiron/sqlx"
)

const jobColumns = `job_id, job_type, payload, status, retry_count, max_retries,
	error_message, created_at, updated_at, started_at, completed_at`

// JobFilter narrows the paginated job listing
type JobFilter struct {
	JobType  string
	Status   string
	PageSize int
	Cursor   *JobCursor
}

// JobCursor marks the last row of the previous page
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// Storage is the PostgreSQL job record store
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// CreateJob inserts a new job row
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, job_type, payload, status,
			retry_count, max_retries, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.JobType,
		string(job.Payload),
		job.Status,
		job.RetryCount,
		job.MaxRetries,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJobByID retrieves a job by its ID
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListJobs returns one page of jobs, newest first. It fetches PageSize+1 rows
// so callers can tell whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, filter.JobType)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// FindEligibleJobs returns up to limit pending or retriable failed jobs, oldest first
func (s *Storage) FindEligibleJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		   OR (status = $2 AND retry_count < max_retries)
		ORDER BY created_at ASC, job_id ASC
		LIMIT $3
	`

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, domain.JobStatusPending, domain.JobStatusFailed, limit); err != nil {
		return nil, fmt.Errorf("failed to find eligible jobs: %w", err)
	}

	return jobs, nil
}

// ClaimJob moves a job to processing only if it still has the status and retry
// count observed when it was selected. It returns false when another caller got there first.
func (s *Storage) ClaimJob(ctx context.Context, jobID, expectedStatus string, expectedRetryCount int) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $2
		  AND status = $3
		  AND retry_count = $4
		  AND (status = $5 OR retry_count < max_retries)
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusProcessing,
		jobID,
		expectedStatus,
		expectedRetryCount,
		domain.JobStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Debug("Job claim lost",
			slog.String("job_id", jobID),
			slog.String("expected_status", expectedStatus),
		)
		return false, nil
	}

	return true, nil
}

// MarkCompleted records a successful run and clears the previous error
func (s *Storage) MarkCompleted(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    completed_at = NOW(),
		    error_message = NULL,
		    updated_at = NOW()
		WHERE job_id = $2 AND status = $3
	`

	return s.execOutcome(ctx, "completed", query, domain.JobStatusCompleted, jobID, domain.JobStatusProcessing)
}

// MarkFailed records a failed run and bumps the retry counter
func (s *Storage) MarkFailed(ctx context.Context, jobID, errorMessage string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    retry_count = retry_count + 1,
		    error_message = $2,
		    updated_at = NOW()
		WHERE job_id = $3 AND status = $4
	`

	return s.execOutcome(ctx, "failed", query, domain.JobStatusFailed, errorMessage, jobID, domain.JobStatusProcessing)
}

func (s *Storage) execOutcome(ctx context.Context, outcome, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark job %s: %w", outcome, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrJobNotProcessing
	}

	return nil
}

// CountJobs counts jobs matching filter
func (s *Storage) CountJobs(ctx context.Context, filter domain.StatusFilter) (int, error) {
	where, args := statusWhere(filter)
	query := `SELECT COUNT(*) FROM jobs` + where

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	return count, nil
}

// ListJobIDs returns ids of jobs matching filter, earliest claim first
func (s *Storage) ListJobIDs(ctx context.Context, filter domain.StatusFilter, limit int) ([]string, error) {
	where, args := statusWhere(filter)
	query := `SELECT job_id FROM jobs` + where +
		fmt.Sprintf(" ORDER BY started_at ASC NULLS LAST, created_at ASC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list job ids: %w", err)
	}

	return ids, nil
}

// ListRecentJobs returns jobs created at or after since, newest first
func (s *Storage) ListRecentJobs(ctx context.Context, since time.Time, limit int) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE created_at >= $1
		ORDER BY created_at DESC, job_id DESC
		LIMIT $2
	`

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, since, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent jobs: %w", err)
	}

	return jobs, nil
}

// statusWhere renders a StatusFilter as a WHERE clause with positional args
func statusWhere(filter domain.StatusFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RetriableOnly {
		conds = append(conds, "retry_count < max_retries")
	}
	if filter.ExhaustedOnly {
		conds = append(conds, "retry_count >= max_retries")
	}
	if filter.StartedBefore != nil {
		args = append(args, *filter.StartedBefore)
		conds = append(conds, fmt.Sprintf("started_at < $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
