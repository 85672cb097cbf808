// internal/workers/underwriting/resolve-condition/handler.go
package resolvecondition

import (
	"context"
	stderrors "errors"

	"mortgage-underwriting/internal/common/camunda"
	"mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/common/metrics"
	"mortgage-underwriting/internal/conditions"
	"mortgage-underwriting/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-condition"
)

type Handler struct {
	config     *Config
	conditions *conditions.Service
	logger     logger.Logger
	runner     *camunda.JobRunner
}

func NewHandler(config *Config, svc *conditions.Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		conditions: svc,
		logger:     log,
		runner:     camunda.NewJobRunner(TaskType, config.Timeout, log),
	}
}

func (h *Handler) WithTracer(t camunda.JobTracer) *Handler {
	h.runner.WithTracer(t)
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	input, err := parseInput(job.Variables)
	if err != nil {
		h.runner.Reject(client, job, err)
		return
	}
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		return h.execute(ctx, input)
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		cond   *models.Condition
		err    error
		target models.ConditionStatus
	)
	switch input.Action {
	case ActionClear:
		target = models.StatusCleared
		cond, err = h.conditions.Clear(ctx, input.ConditionID, input.Notes)
	case ActionRequestDocument:
		target = models.StatusPendingDocument
		cond, err = h.conditions.RequestDocument(ctx, input.ConditionID, input.RequestedDocumentType, input.Notes)
	default:
		return nil, errors.NewInputValidationFailedError("unsupported action: " + input.Action)
	}
	if err != nil {
		return nil, h.mapError(ctx, input.ConditionID, target, err)
	}

	metrics.ConditionTransitions.WithLabelValues(string(cond.Status)).Inc()

	unresolved, err := h.conditions.Unresolved(ctx, cond.LoanID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list unresolved conditions", err)
	}

	h.logger.Info("condition resolved", map[string]interface{}{
		"conditionId": cond.ID,
		"loanId":      cond.LoanID,
		"status":      cond.Status,
		"openForLoan": len(unresolved),
	})

	return &Output{
		Condition:   cond,
		Status:      cond.Status,
		LoanID:      cond.LoanID,
		OpenForLoan: len(unresolved),
		AllResolved: len(unresolved) == 0,
	}, nil
}

func (h *Handler) mapError(ctx context.Context, id string, target models.ConditionStatus, err error) error {
	switch {
	case stderrors.Is(err, conditions.ErrConditionNotFound):
		return errors.NewConditionNotFoundError(id)
	case stderrors.Is(err, conditions.ErrInvalidTransition):
		from := "unknown"
		if c, getErr := h.conditions.Get(ctx, id); getErr == nil {
			from = string(c.Status)
		}
		return errors.NewInvalidConditionTransitionError(id, from, string(target))
	default:
		return errors.NewQueryExecutionFailedError("update condition", err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
