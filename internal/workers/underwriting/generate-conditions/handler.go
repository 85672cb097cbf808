// internal/workers/underwriting/generate-conditions/handler.go
package generateconditions

import (
	"context"
	"database/sql/driver"
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
	TaskType = "generate-conditions"
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
	result := input.ValidationResult
	docType := input.DocumentType
	if docType == "" {
		docType = result.DocumentType
	}
	if docType == "" {
		return nil, errors.NewInputValidationFailedError("documentType is required on the job or the validation result")
	}
	if result.LoanID == "" {
		result.LoanID = input.LoanContext.LoanID
	}

	conds, err := h.conditions.Generate(ctx, result, docType, &input.LoanContext)
	if err != nil {
		return nil, storeError(err)
	}

	critical := 0
	for _, c := range conds {
		metrics.ConditionsGenerated.WithLabelValues(string(c.Type)).Inc()
		if c.Type == models.ConditionCritical {
			critical++
		}
	}

	h.logger.Info("conditions generated for document", map[string]interface{}{
		"loanId":       input.LoanContext.LoanID,
		"documentType": docType,
		"count":        len(conds),
		"critical":     critical,
	})

	return &Output{
		Conditions:        conds,
		ConditionCount:    len(conds),
		CriticalCount:     critical,
		HasOpenConditions: len(conds) > 0,
	}, nil
}

func storeError(err error) *errors.StandardError {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewQueryTimeoutError("append conditions")
	case stderrors.Is(err, driver.ErrBadConn):
		return errors.NewDatabaseConnectionFailedError(err)
	default:
		return errors.NewDatabaseInsertFailedError(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
