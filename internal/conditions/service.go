// internal/conditions/service.go
package conditions

import (
	"context"
	"fmt"
	"time"

	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/models"

	"github.com/google/uuid"
)

// Indexer receives every condition write, for search. Index failures are
// logged and never fail the write.
type Indexer interface {
	Index(ctx context.Context, condition models.Condition) error
}

// Service turns validation findings into conditions and moves them through
// their lifecycle. It assumes a single writer per loan.
type Service struct {
	store   Store
	indexer Indexer
	logger  logger.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(store Store, indexer Indexer, log logger.Logger) *Service {
	return &Service{
		store:   store,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"component": "condition-service"}),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build creates the open conditions for a validation result without
// persisting them: one per critical issue and one per warning, in result
// order. Info findings do not produce conditions.
func (s *Service) Build(result *models.ValidationResult, documentType string, loan *models.LoanContext) []models.Condition {
	if result == nil {
		return nil
	}
	if documentType == "" {
		documentType = result.DocumentType
	}
	loanID := result.LoanID
	if loan != nil && loan.LoanID != "" {
		loanID = loan.LoanID
	}
	now := s.now()

	out := make([]models.Condition, 0, len(result.Issues)+len(result.Warnings))
	for _, i := range result.Issues {
		out = append(out, s.newCondition(i, models.ConditionCritical, models.CategoryDocumentIssue, loanID, documentType, now))
	}
	for _, i := range result.Warnings {
		out = append(out, s.newCondition(i, models.ConditionWarning, models.CategoryNeedsClarification, loanID, documentType, now))
	}
	return out
}

func (s *Service) newCondition(i models.Issue, t models.ConditionType, category, loanID, documentType string, now time.Time) models.Condition {
	r := remedyFor(i.RuleID)
	return models.Condition{
		ID:                  s.newID(),
		LoanID:              loanID,
		DocumentType:        documentType,
		Type:                t,
		Category:            category,
		Title:               r.Title,
		Description:         i.Message,
		Field:               i.Field,
		RuleID:              i.RuleID,
		Severity:            i.Severity,
		Status:              models.StatusOpen,
		SuggestedAction:     r.Action,
		RequiresNewDocument: RequiresNewDocument(i.RuleID),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Generate builds and persists the conditions for a validation result.
// Store failures are returned unchanged.
func (s *Service) Generate(ctx context.Context, result *models.ValidationResult, documentType string, loan *models.LoanContext) ([]models.Condition, error) {
	conds := s.Build(result, documentType, loan)
	if len(conds) == 0 {
		return conds, nil
	}
	if err := s.store.Append(ctx, conds); err != nil {
		return nil, err
	}
	for _, c := range conds {
		s.index(ctx, c)
	}

	s.logger.Info("conditions generated", map[string]interface{}{
		"loanId":       conds[0].LoanID,
		"documentType": conds[0].DocumentType,
		"count":        len(conds),
	})
	return conds, nil
}

// Clear resolves a condition with notes. Open and pending-document
// conditions may be cleared; cleared ones may not.
func (s *Service) Clear(ctx context.Context, id, notes string) (*models.Condition, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusOpen && c.Status != models.StatusPendingDocument {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, c.Status)
	}

	from := c.Status
	now := s.now()
	c.Status = models.StatusCleared
	c.ResolutionNotes = notes
	c.ClearedAt = &now
	c.UpdatedAt = now
	if err := s.store.Update(ctx, c, from); err != nil {
		return nil, err
	}
	s.index(ctx, *c)

	s.logger.Info("condition cleared", map[string]interface{}{
		"conditionId": id,
		"loanId":      c.LoanID,
	})
	return c, nil
}

// RequestDocument moves an open condition to pending-document. An empty
// documentType defaults to the condition's own document type.
func (s *Service) RequestDocument(ctx context.Context, id, documentType, notes string) (*models.Condition, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusOpen {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, c.Status)
	}
	if documentType == "" {
		documentType = c.DocumentType
	}

	now := s.now()
	c.Status = models.StatusPendingDocument
	c.RequestedDocumentType = documentType
	c.RequestNotes = notes
	c.RequestedAt = &now
	c.UpdatedAt = now
	if err := s.store.Update(ctx, c, models.StatusOpen); err != nil {
		return nil, err
	}
	s.index(ctx, *c)

	s.logger.Info("document requested", map[string]interface{}{
		"conditionId":  id,
		"loanId":       c.LoanID,
		"documentType": documentType,
	})
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Condition, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByLoan(ctx context.Context, loanID string) ([]models.Condition, error) {
	return s.store.ListByLoan(ctx, loanID)
}

// Unresolved returns the loan's conditions that are not cleared.
func (s *Service) Unresolved(ctx context.Context, loanID string) ([]models.Condition, error) {
	all, err := s.store.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return FilterUnresolved(all), nil
}

// FilterUnresolved keeps conditions whose status is anything but cleared.
func FilterUnresolved(conds []models.Condition) []models.Condition {
	out := []models.Condition{}
	for _, c := range conds {
		if !c.IsResolved() {
			out = append(out, c)
		}
	}
	return out
}

func (s *Service) index(ctx context.Context, c models.Condition) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, c); err != nil {
		s.logger.Warn("condition index failed", map[string]interface{}{
			"conditionId": c.ID,
			"error":       err.Error(),
		})
	}
}
