package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/api/dto"
	"github.com/cuongbtq/inspection-jobs/internal/domain"
)

// JobClient handles API calls to the job queue service.
type JobClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewJobClient creates a client for the API service at baseURL.
func NewJobClient(baseURL string) *JobClient {
	return &JobClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// envelope mirrors dto.Response with typed data and result fields
type envelope[D, R any] struct {
	Success bool   `json:"success"`
	Data    D      `json:"data"`
	Result  R      `json:"result"`
	Error   string `json:"error"`
}

// ProcessQueue sends POST /api/v1/jobs/process. maxJobs <= 0 lets the server
// pick its default. A partially completed pass returns both the result and an
// *APIError.
func (c *JobClient) ProcessQueue(ctx context.Context, maxJobs int) (*domain.ProcessResult, error) {
	endpoint := c.BaseURL + "/api/v1/jobs/process"
	if maxJobs > 0 {
		endpoint += "?maxJobs=" + strconv.Itoa(maxJobs)
	}

	var env envelope[json.RawMessage, *domain.ProcessResult]
	err := c.do(ctx, http.MethodPost, endpoint, nil, &env)
	return env.Result, err
}

// QueueStatus sends GET /api/v1/jobs/status.
func (c *JobClient) QueueStatus(ctx context.Context) (*domain.QueueStatus, error) {
	var env envelope[*domain.QueueStatus, json.RawMessage]
	if err := c.do(ctx, http.MethodGet, c.BaseURL+"/api/v1/jobs/status", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateJob sends POST /api/v1/jobs.
func (c *JobClient) CreateJob(ctx context.Context, req dto.CreateJobRequest) (*domain.Job, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var env envelope[*domain.Job, json.RawMessage]
	if err := c.do(ctx, http.MethodPost, c.BaseURL+"/api/v1/jobs", body, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetJob sends GET /api/v1/jobs/{id}.
func (c *JobClient) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	endpoint := c.BaseURL + "/api/v1/jobs/" + url.PathEscape(jobID)

	var env envelope[*domain.Job, json.RawMessage]
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// do sends the request and decodes the envelope into out. The envelope is
// decoded for error responses too so partial results survive.
func (c *JobClient) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	decodeErr := json.Unmarshal(respBody, out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure dto.Response
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &failure) == nil && failure.Error != "" {
			msg = failure.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	return nil
}
