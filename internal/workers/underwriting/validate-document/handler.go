// internal/workers/underwriting/validate-document/handler.go
package validatedocument

import (
	"context"
	stderrors "errors"

	"mortgage-underwriting/internal/common/camunda"
	"mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/common/metrics"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/internal/rules"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-document"
)

// ResultStore keeps the latest validation per loan and document type.
type ResultStore interface {
	SaveResult(ctx context.Context, result *models.ValidationResult) error
}

type Handler struct {
	config    *Config
	validator *rules.Validator
	results   ResultStore
	logger    logger.Logger
	runner    *camunda.JobRunner
}

func NewHandler(config *Config, validator *rules.Validator, results ResultStore, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		validator: validator,
		results:   results,
		logger:    log,
		runner:    camunda.NewJobRunner(TaskType, config.Timeout, log),
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
	docType := input.DocumentType
	if docType == "" {
		docType = input.Document.DocumentType
	}
	if docType == "" {
		return nil, errors.NewInputValidationFailedError("documentType is required on the job or the document")
	}
	if input.Document.LoanID == "" {
		input.Document.LoanID = input.LoanContext.LoanID
	}

	result, err := h.validator.ValidateDocument(&input.Document, docType, &input.LoanContext)
	if err != nil {
		if stderrors.Is(err, rules.ErrUnknownDocumentType) {
			return nil, errors.NewUnknownDocumentTypeError(docType)
		}
		return nil, errors.NewInternalError(err)
	}

	if h.results != nil {
		if err := h.results.SaveResult(ctx, result); err != nil {
			return nil, errors.NewCacheOperationFailedError("save validation result", err)
		}
	}

	metrics.RecordValidation(result.DocumentType, result.IsValid)
	for _, bucket := range [][]models.Issue{result.Issues, result.Warnings, result.Info} {
		for _, i := range bucket {
			metrics.RecordIssue(result.DocumentType, i.RuleID, string(i.Severity))
		}
	}

	h.logger.Info("document validated", map[string]interface{}{
		"loanId":       result.LoanID,
		"documentId":   result.DocumentID,
		"documentType": result.DocumentType,
		"isValid":      result.IsValid,
		"critical":     len(result.Issues),
		"warnings":     len(result.Warnings),
	})

	return &Output{
		ValidationResult: result,
		IsValid:          result.IsValid,
		CriticalCount:    len(result.Issues),
		WarningCount:     len(result.Warnings),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
