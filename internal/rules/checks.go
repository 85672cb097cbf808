// internal/rules/checks.go
package rules

import (
	"fmt"
	"time"

	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/pkg/catalog"
)

// Check is one document-type specific deep check. It compares extracted
// values with each other and with the loan application.
type Check interface {
	ID() string
	Run(doc *models.ExtractedDocument, loan *models.LoanContext, now time.Time) []models.Issue
}

// CheckFunc adapts a plain function into a Check.
type CheckFunc struct {
	Name string
	Fn   func(doc *models.ExtractedDocument, loan *models.LoanContext, now time.Time) []models.Issue
}

func (c CheckFunc) ID() string { return c.Name }

func (c CheckFunc) Run(doc *models.ExtractedDocument, loan *models.LoanContext, now time.Time) []models.Issue {
	return c.Fn(doc, loan, now)
}

// Registry maps a document type id to its ordered deep checks.
type Registry map[string][]Check

// Register appends checks for a document type.
func (r Registry) Register(documentType string, checks ...Check) {
	r[documentType] = append(r[documentType], checks...)
}

// For returns the checks for a document type, nil when none are registered.
func (r Registry) For(documentType string) []Check {
	return r[documentType]
}

// DefaultChecks is the built-in battery for pay stubs, W-2s and bank
// statements.
func DefaultChecks() Registry {
	r := Registry{}
	r.Register(catalog.DocPaystub, paystubChecks()...)
	r.Register(catalog.DocW2, w2Checks()...)
	r.Register(catalog.DocBankStatement, bankStatementChecks()...)
	r.Register(catalog.DocBankStatement, RecencyCheck{
		RuleID:     CheckStatementRecencyRequired,
		Field:      "statementDate",
		MaxAgeDays: 45,
		Severity:   models.SeverityCritical,
	})
	return r
}

// RecencyCheck flags a dated field older than MaxAgeDays. It is not tied to
// any document type.
type RecencyCheck struct {
	RuleID     string
	Field      string
	MaxAgeDays int
	Severity   models.Severity
}

func (c RecencyCheck) ID() string { return c.RuleID }

func (c RecencyCheck) Run(doc *models.ExtractedDocument, _ *models.LoanContext, now time.Time) []models.Issue {
	d, ok := parseDate(doc.Field(c.Field))
	if !ok || !olderThan(d, now, c.MaxAgeDays) {
		return nil
	}
	return []models.Issue{{
		RuleID:   c.RuleID,
		Field:    c.Field,
		Severity: c.Severity,
		Message:  fmt.Sprintf("%s is %d days old; must be within %d days", c.Field, daysSince(d, now), c.MaxAgeDays),
	}}
}

func issue(ruleID, field string, severity models.Severity, format string, args ...interface{}) models.Issue {
	return models.Issue{
		RuleID:   ruleID,
		Field:    field,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	}
}

func single(ruleID string, fn func(doc *models.ExtractedDocument, loan *models.LoanContext, now time.Time) *models.Issue) Check {
	return CheckFunc{Name: ruleID, Fn: func(doc *models.ExtractedDocument, loan *models.LoanContext, now time.Time) []models.Issue {
		if i := fn(doc, loan, now); i != nil {
			return []models.Issue{*i}
		}
		return nil
	}}
}
