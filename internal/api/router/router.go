package router

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/cuongbtq/inspection-jobs/internal/api/handler"
	"github.com/cuongbtq/inspection-jobs/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether the job store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// poolStatter is implemented by store clients that expose pool statistics
type poolStatter interface {
	Stats() sql.DBStats
}

// Options configures the non-job routes
type Options struct {
	ServiceName string
	// Health is nil for the in-memory store
	Health HealthChecker
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware())

	r.GET("/health", healthHandler(opts))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs/process - Run one processing pass
			jobs.POST("/process", jobHandler.ProcessJobs)

			// GET /api/v1/jobs/status - Queue health summary
			jobs.GET("/status", jobHandler.GetQueueStatus)

			// POST /api/v1/jobs - Enqueue a job
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", jobHandler.GetJob)
		}
	}

	return r
}

func healthHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Health != nil {
			if ps, ok := opts.Health.(poolStatter); ok {
				metrics.SetDBPoolStats(ps.Stats())
			}
			if err := opts.Health.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": opts.ServiceName,
					"error":   err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	}
}
