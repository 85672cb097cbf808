// internal/common/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJobTimer(t *testing.T) {
	completed := testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test"))
	failed := testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test", "CONDITION_NOT_FOUND"))

	StartJob("metrics-test").Done("")
	StartJob("metrics-test").Done("CONDITION_NOT_FOUND")

	assert.Equal(t, completed+1, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test")))
	assert.Equal(t, failed+1, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test", "CONDITION_NOT_FOUND")))
	assert.Equal(t, 0.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues("metrics-test")))
}

func TestRecordValidation(t *testing.T) {
	before := testutil.ToFloat64(DocumentsValidated.WithLabelValues("w2", "false"))
	RecordValidation("w2", false)
	RecordIssue("w2", "ssnMismatch", "critical")
	RecordIssue("w2", "ssnMismatch", "critical")

	assert.Equal(t, before+1, testutil.ToFloat64(DocumentsValidated.WithLabelValues("w2", "false")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(ValidationIssues.WithLabelValues("w2", "ssnMismatch", "critical")), 2.0)
}

func TestRecordScorecard(t *testing.T) {
	before := testutil.ToFloat64(LoansReadyToClose.WithLabelValues("true"))
	RecordScorecard(100, true)
	assert.Equal(t, before+1, testutil.ToFloat64(LoansReadyToClose.WithLabelValues("true")))
}
