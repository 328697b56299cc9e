package metrics

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncJob(t *testing.T) {
	before := testutil.ToFloat64(jobsProcessedTotal.WithLabelValues("send_notification", "completed"))

	IncJob("Send_Notification ", "COMPLETED")

	after := testutil.ToFloat64(jobsProcessedTotal.WithLabelValues("send_notification", "completed"))
	assert.Equal(t, before+1, after)
}

func TestIncJob_EmptyLabels(t *testing.T) {
	before := testutil.ToFloat64(jobsProcessedTotal.WithLabelValues("unknown", "failed"))

	IncJob("", "failed")

	assert.Equal(t, before+1, testutil.ToFloat64(jobsProcessedTotal.WithLabelValues("unknown", "failed")))
}

func TestIncProcessRun(t *testing.T) {
	okBefore := testutil.ToFloat64(processRunsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(processRunsTotal.WithLabelValues("error"))

	IncProcessRun(nil)
	IncProcessRun(errors.New("store down"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(processRunsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(processRunsTotal.WithLabelValues("error")))
}

func TestSetQueueDepth(t *testing.T) {
	SetQueueDepth(4, 2, 1, 3)

	assert.Equal(t, float64(4), testutil.ToFloat64(queueJobs.WithLabelValues("pending")))
	assert.Equal(t, float64(2), testutil.ToFloat64(queueJobs.WithLabelValues("retriable_failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(queueJobs.WithLabelValues("exhausted_failed")))
	assert.Equal(t, float64(3), testutil.ToFloat64(queueJobs.WithLabelValues("stuck")))
}

func TestClaimConflictAndDuration(t *testing.T) {
	before := testutil.ToFloat64(claimConflictsTotal)
	IncClaimConflict()
	assert.Equal(t, before+1, testutil.ToFloat64(claimConflictsTotal))

	ObserveJobDuration("sharepoint_export", 250*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(jobDurationSeconds, "jobqueue_job_duration_seconds"))
}

func TestMustRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})
}

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/jobs/:job_id", "404"))

	ObserveHTTPRequest("GET", "/api/v1/jobs/:job_id", 404, 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/jobs/:job_id", "404")))

	ObserveHTTPRequest("GET", "", 404, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")), float64(1))
}

func TestSetDBPoolStats(t *testing.T) {
	SetDBPoolStats(sql.DBStats{OpenConnections: 5, Idle: 3, InUse: 2})

	assert.Equal(t, float64(5), testutil.ToFloat64(dbPoolStats.WithLabelValues("open")))
	assert.Equal(t, float64(3), testutil.ToFloat64(dbPoolStats.WithLabelValues("idle")))
	assert.Equal(t, float64(2), testutil.ToFloat64(dbPoolStats.WithLabelValues("in_use")))
}

func TestSetBuildInfo(t *testing.T) {
	SetBuildInfo("inspection-jobs-api", "1.2.0", "staging")
	assert.Equal(t, float64(1), testutil.ToFloat64(buildInfo.WithLabelValues("inspection-jobs-api", "1.2.0", "staging")))
}
