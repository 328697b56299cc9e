package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/api/dto"
	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/cuongbtq/inspection-jobs/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateJob handles POST /api/v1/jobs
// Enqueues a job of a registered type and asks a worker to run a pass
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}

	maxRetries, ok := h.registry.MaxRetries(req.JobType)
	if !ok {
		h.logger.Warn("Rejected job of unknown type", slog.String("job_type", req.JobType))
		c.JSON(http.StatusBadRequest, dto.Fail(fmt.Sprintf("unknown job type %q (registered: %s)",
			req.JobType, strings.Join(h.registry.JobTypes(), ", "))))
		return
	}
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}

	payload := req.Payload
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage(`{}`)
	}

	now := time.Now().UTC()
	job := &domain.Job{
		JobID:      uuid.NewString(),
		JobType:    req.JobType,
		Payload:    payload,
		Status:     domain.JobStatusPending,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.store.CreateJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.Fail("failed to create job"))
		return
	}

	h.logger.Info("Job enqueued",
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
		slog.Int("max_retries", job.MaxRetries),
	)

	h.publishTrigger(c, job.JobID)

	c.JSON(http.StatusCreated, dto.Response{Success: true, Data: job})
}

// publishTrigger asks the worker service for a pass. The job is already
// durable, so a failed publish only delays it until the next trigger.
func (h *JobHandler) publishTrigger(c *gin.Context, jobID string) {
	if h.triggers == nil {
		return
	}

	body, err := json.Marshal(domain.TriggerMessage{MaxJobs: h.limits.DefaultBatchSize})
	if err != nil {
		return
	}

	if err := h.triggers.Publish(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Warn("Failed to publish processing trigger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// GetJob handles GET /api/v1/jobs/:job_id
// Retrieves detailed information about a specific job
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Warn("Invalid job_id format", slog.String("job_id", jobID))
		c.JSON(http.StatusBadRequest, dto.Fail("job_id must be a valid UUID"))
		return
	}

	job, err := h.store.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, dto.Fail("job not found"))
			return
		}
		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.Fail("failed to get job"))
		return
	}

	c.JSON(http.StatusOK, dto.Response{Success: true, Data: job})
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs newest first with optional filtering and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.Fail("invalid query parameters"))
		return
	}

	if req.Status != "" && !domain.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, dto.Fail(fmt.Sprintf("invalid status %q", req.Status)))
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.Fail("invalid cursor"))
		return
	}

	jobs, err := h.store.ListJobs(c.Request.Context(), storage.JobFilter{
		JobType:  req.JobType,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.Fail("failed to list jobs"))
		return
	}

	// The store returns one extra row when another page exists
	var nextCursor string
	if len(jobs) > req.PageSize {
		jobs = jobs[:req.PageSize]
		last := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(storage.JobCursor{CreatedAt: last.CreatedAt, JobID: last.JobID})
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}

	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data: dto.ListJobsResponse{
			Jobs:       jobs,
			NextCursor: nextCursor,
		},
	})
}
