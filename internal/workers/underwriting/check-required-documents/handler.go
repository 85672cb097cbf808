// internal/workers/underwriting/check-required-documents/handler.go
package checkrequireddocuments

import (
	"context"

	"mortgage-underwriting/internal/common/camunda"
	"mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/internal/rules"
	"mortgage-underwriting/pkg/catalog"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-required-documents"
)

// DocumentLister returns the documents already validated for a loan.
type DocumentLister interface {
	List(ctx context.Context, loanID string) ([]models.DocumentRecord, error)
}

type Handler struct {
	config    *Config
	catalog   *catalog.Catalog
	documents DocumentLister
	logger    logger.Logger
	runner    *camunda.JobRunner
}

func NewHandler(config *Config, c *catalog.Catalog, documents DocumentLister, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		catalog:   c,
		documents: documents,
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
	required, err := rules.RequiredDocuments(&input.LoanContext, h.catalog)
	if err != nil {
		return nil, errors.NewInputValidationFailedError(err.Error())
	}

	received := map[string]bool{}
	if h.documents != nil {
		records, err := h.documents.List(ctx, input.LoanContext.LoanID)
		if err != nil {
			return nil, errors.NewCacheOperationFailedError("list documents", err)
		}
		for _, r := range records {
			received[r.DocumentType] = true
		}
	}

	out := &Output{
		RequiredDocuments: make([]RequiredDocument, 0, len(required)),
		MissingDocuments:  []models.MissingDocument{},
		CatalogVersion:    h.catalog.Version,
	}
	for _, dt := range required {
		out.RequiredDocuments = append(out.RequiredDocuments, RequiredDocument{
			DocumentType:       dt.ID,
			Name:               dt.Name,
			Category:           dt.Category,
			Received:           received[dt.ID],
			ExtractionGuidance: dt.ExtractionGuidance,
		})
		if !received[dt.ID] {
			out.MissingDocuments = append(out.MissingDocuments, models.MissingDocument{
				DocumentType: dt.ID,
				Name:         dt.Name,
				Category:     dt.Category,
			})
		}
	}
	out.RequiredCount = len(out.RequiredDocuments)
	out.MissingCount = len(out.MissingDocuments)
	out.AllReceived = out.MissingCount == 0

	h.logger.Info("required documents resolved", map[string]interface{}{
		"loanId":   input.LoanContext.LoanID,
		"required": out.RequiredCount,
		"missing":  out.MissingCount,
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
