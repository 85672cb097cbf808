// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	DocumentsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_documents_validated_total",
			Help: "Documents validated, by document type and outcome",
		},
		[]string{"document_type", "valid"},
	)

	ValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_validation_issues_total",
			Help: "Validation issues raised, by document type, rule and severity",
		},
		[]string{"document_type", "rule_id", "severity"},
	)

	ConditionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_conditions_generated_total",
			Help: "Conditions generated, by condition type",
		},
		[]string{"type"},
	)

	ConditionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_condition_transitions_total",
			Help: "Condition status changes, by target status",
		},
		[]string{"status"},
	)

	ScorecardOverall = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "underwriting_scorecard_overall_score",
			Help:    "Distribution of overall scorecard scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	LoansReadyToClose = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_scorecards_total",
			Help: "Scorecards built, by readiness",
		},
		[]string{"ready"},
	)
)

// JobTimer tracks one in-flight job for a task type.
type JobTimer struct {
	taskType string
	start    time.Time
}

// StartJob marks a job active and starts its duration timer.
func StartJob(taskType string) *JobTimer {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &JobTimer{taskType: taskType, start: time.Now()}
}

// Done records the outcome. An empty errorCode counts as completed.
func (t *JobTimer) Done(errorCode string) {
	WorkerJobsActive.WithLabelValues(t.taskType).Dec()
	WorkerJobDuration.WithLabelValues(t.taskType).Observe(time.Since(t.start).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(t.taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(t.taskType, errorCode).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RecordValidation counts one validated document.
func RecordValidation(documentType string, valid bool) {
	DocumentsValidated.WithLabelValues(documentType, boolLabel(valid)).Inc()
}

func RecordIssue(documentType, ruleID, severity string) {
	ValidationIssues.WithLabelValues(documentType, ruleID, severity).Inc()
}

// RecordScorecard observes a built scorecard.
func RecordScorecard(overall int, ready bool) {
	ScorecardOverall.Observe(float64(overall))
	LoansReadyToClose.WithLabelValues(boolLabel(ready)).Inc()
}
