package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cuongbtq/inspection-jobs/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// ProcessJobs handles POST /api/v1/jobs/process?maxJobs=<n>
// Runs one bounded processing pass synchronously. Intended for cron and operators.
func (h *JobHandler) ProcessJobs(c *gin.Context) {
	maxJobs := h.limits.DefaultBatchSize
	if raw := c.Query("maxJobs"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.Fail("maxJobs must be an integer"))
			return
		}
		maxJobs = n
	}
	if maxJobs > h.limits.MaxBatchSize {
		maxJobs = h.limits.MaxBatchSize
	}

	result, err := h.processor.ProcessQueue(c.Request.Context(), maxJobs)
	if err != nil {
		h.logger.Error("Processing pass failed",
			slog.Int("max_jobs", maxJobs),
			slog.Int("processed", result.Processed),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.Response{
			Success: false,
			Result:  result,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.Response{Success: true, Result: result})
}

// GetQueueStatus handles GET /api/v1/jobs/status
// Returns queue counts, the recent job history and stuck job ids
func (h *JobHandler) GetQueueStatus(c *gin.Context) {
	status, err := h.reporter.GetQueueStatus(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get queue status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.Response{Success: true, Data: status})
}
