// internal/workers/underwriting/build-scorecard/handler.go
package buildscorecard

import (
	"context"

	"mortgage-underwriting/internal/common/camunda"
	"mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/common/metrics"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/internal/scorecard"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "build-scorecard"
)

type DocumentLister interface {
	List(ctx context.Context, loanID string) ([]models.DocumentRecord, error)
}

type ConditionLister interface {
	ListByLoan(ctx context.Context, loanID string) ([]models.Condition, error)
}

type Handler struct {
	config     *Config
	builder    *scorecard.Builder
	documents  DocumentLister
	conditions ConditionLister
	logger     logger.Logger
	runner     *camunda.JobRunner
}

func NewHandler(config *Config, builder *scorecard.Builder, documents DocumentLister, conditions ConditionLister, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		builder:    builder,
		documents:  documents,
		conditions: conditions,
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
	loanID := input.LoanContext.LoanID

	docs, err := h.documents.List(ctx, loanID)
	if err != nil {
		return nil, errors.NewCacheOperationFailedError("list documents", err)
	}
	conds, err := h.conditions.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list conditions", err)
	}

	card, err := h.builder.Build(&input.LoanContext, docs, conds)
	if err != nil {
		return nil, errors.NewInputValidationFailedError(err.Error())
	}

	metrics.RecordScorecard(card.OverallScore, card.ReadyToClose)

	h.logger.Info("scorecard built", map[string]interface{}{
		"loanId":       loanID,
		"overallScore": card.OverallScore,
		"readyToClose": card.ReadyToClose,
		"documents":    len(docs),
		"unresolved":   len(card.UnresolvedConditions),
	})

	return &Output{
		Scorecard:       card,
		OverallScore:    card.OverallScore,
		ReadyToClose:    card.ReadyToClose,
		MissingCount:    len(card.MissingDocuments),
		UnresolvedCount: len(card.UnresolvedConditions),
		DocumentsOnFile: len(docs),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
