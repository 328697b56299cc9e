package dto

import (
	"encoding/json"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
)

// CreateJobRequest is the body of POST /api/v1/jobs
type CreateJobRequest struct {
	JobType    string          `json:"job_type" binding:"required"`
	Payload    json.RawMessage `json:"payload"`
	MaxRetries *int            `json:"max_retries" binding:"omitempty,min=0,max=100"`
}

// ListJobsRequest holds the query of GET /api/v1/jobs
type ListJobsRequest struct {
	JobType  string `form:"job_type"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// ListJobsResponse is one page of jobs
type ListJobsResponse struct {
	Jobs       []domain.Job `json:"jobs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// Response is the envelope of every job endpoint
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Fail builds an error envelope
func Fail(msg string) Response {
	return Response{Success: false, Error: msg}
}
