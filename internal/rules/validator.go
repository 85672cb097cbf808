// internal/rules/validator.go
package rules

import (
	"errors"
	"fmt"
	"time"

	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/pkg/catalog"
)

var ErrUnknownDocumentType = errors.New("UNKNOWN_DOCUMENT_TYPE")

// Validator runs field rules, declarative document rules and the deep-check
// battery for a document. It holds no mutable state and is safe to share
// across goroutines.
type Validator struct {
	catalog *catalog.Catalog
	checks  Registry
	logger  logger.Logger
	now     func() time.Time
}

// NewValidator builds a validator over a loaded catalog. A nil registry uses
// DefaultChecks.
func NewValidator(c *catalog.Catalog, checks Registry, log logger.Logger) *Validator {
	if checks == nil {
		checks = DefaultChecks()
	}
	return &Validator{
		catalog: c,
		checks:  checks,
		logger:  log.WithFields(map[string]interface{}{"component": "document-validator"}),
		now:     time.Now,
	}
}

// WithClock replaces the time source, for reproducible runs.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

func (v *Validator) Catalog() *catalog.Catalog {
	return v.catalog
}

// ValidateDocument validates one extracted document against the catalog
// entry for documentTypeID. Findings are returned as data; only a catalog
// miss is an error.
func (v *Validator) ValidateDocument(doc *models.ExtractedDocument, documentTypeID string, loan *models.LoanContext) (*models.ValidationResult, error) {
	dt, ok := v.catalog.DocumentType(documentTypeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocumentType, documentTypeID)
	}
	if doc == nil {
		doc = &models.ExtractedDocument{DocumentType: documentTypeID}
	}
	if loan == nil {
		loan = &models.LoanContext{}
	}
	now := v.now()

	result := models.NewValidationResult(dt.ID)
	result.LoanID = loan.LoanID
	result.DocumentID = doc.DocumentID
	result.ValidatedAt = now

	for _, rule := range dt.Fields {
		fv := ValidateField(rule, doc.Field(rule.Name), loan, now)
		result.FieldValidations[rule.Name] = fv
		if fv.IsValid {
			continue
		}
		ruleID := rule.Validator
		if isMissing(doc.Field(rule.Name)) {
			ruleID = RuleRequiredField
		}
		result.Add(models.Issue{
			RuleID:   ruleID,
			Field:    rule.Name,
			Severity: models.SeverityCritical,
			Message:  fv.Message,
		})
	}

	ruleIssues, unknown := runDocumentRules(dt, doc.Fields, loan, v.catalog, now)
	for _, i := range ruleIssues {
		result.Add(i)
	}
	if len(unknown) > 0 {
		v.logger.Debug("skipped unimplemented document rules", map[string]interface{}{
			"documentType": dt.ID,
			"rules":        unknown,
		})
	}

	for _, check := range v.checks.For(dt.ID) {
		for _, i := range check.Run(doc, loan, now) {
			result.Add(i)
		}
	}

	v.logger.Debug("document validated", map[string]interface{}{
		"documentType": dt.ID,
		"loanId":       loan.LoanID,
		"isValid":      result.IsValid,
		"issues":       len(result.Issues),
		"warnings":     len(result.Warnings),
	})
	return result, nil
}
