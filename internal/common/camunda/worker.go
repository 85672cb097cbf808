// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"mortgage-underwriting/internal/common/config"
	"mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobTracer opens a span per job; observability.Observability satisfies it.
type JobTracer interface {
	StartJob(ctx context.Context, taskType string, jobKey int64) (context.Context, func(error))
}

// CommandTimeout bounds the complete, fail and throw calls sent after a job
// has run.
const CommandTimeout = 10 * time.Second

type noopTracer struct{}

func (noopTracer) StartJob(ctx context.Context, _ string, _ int64) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// JobRunner carries the completion and failure plumbing shared by every
// underwriting worker.
type JobRunner struct {
	taskType string
	timeout  time.Duration
	logger   logger.Logger
	errors   *errors.ErrorHandler
	tracer   JobTracer
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		taskType: taskType,
		timeout:  timeout,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		tracer:   noopTracer{},
	}
}

func (r *JobRunner) WithTracer(t JobTracer) *JobRunner {
	if t != nil {
		r.tracer = t
	}
	return r
}

// Run executes fn under the job timeout, completes the job with fn's
// output or hands the error to the error handler.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, fn func(ctx context.Context) (interface{}, error)) {
	timer := metrics.StartJob(r.taskType)

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	ctx, done := r.tracer.StartJob(ctx, r.taskType, job.Key)

	output, err := fn(ctx)

	// The job context may already be expired; Zeebe must still hear the outcome.
	cmdCtx, cancelCmd := commandContext(ctx)
	defer cancelCmd()

	if err != nil {
		r.errors.HandleJobError(cmdCtx, client, job, err)
		done(err)
		timer.Done(string(errors.Normalize(err).Code))
		return
	}

	r.completeJob(cmdCtx, client, job, output)
	done(nil)
	timer.Done("")
}

// Reject fails a job before any work starts, typically on bad input.
func (r *JobRunner) Reject(client worker.JobClient, job entities.Job, err error) {
	timer := metrics.StartJob(r.taskType)
	ctx, cancel := commandContext(context.Background())
	defer cancel()

	r.errors.HandleJobError(ctx, client, job, err)
	timer.Done(string(errors.Normalize(err).Code))
}

// commandContext keeps the values of ctx (trace span) but not its deadline.
func commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), CommandTimeout)
}

func (r *JobRunner) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}

// Register opens a job worker for taskType. Disabled workers return nil.
func Register(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return jw
}
