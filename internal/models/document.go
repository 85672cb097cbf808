// internal/models/document.go
package models

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ExtractedDocument is what the extraction provider hands back for one upload.
// Fields that were not found are present with a nil value.
type ExtractedDocument struct {
	DocumentID   string                 `json:"documentId,omitempty"`
	LoanID       string                 `json:"loanId,omitempty"`
	DocumentType string                 `json:"documentType"`
	ExtractedAt  time.Time              `json:"extractedAt"`
	Confidence   float64                `json:"confidence"`
	Fields       map[string]interface{} `json:"fields"`
}

// Field returns the raw extracted value, nil when absent.
func (d *ExtractedDocument) Field(name string) interface{} {
	if d == nil || d.Fields == nil {
		return nil
	}
	return d.Fields[name]
}

// Issue is a single finding produced during validation.
type Issue struct {
	RuleID   string   `json:"ruleId"`
	Field    string   `json:"field,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type FieldValidation struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

// ValidationResult is the outcome of validating one document.
// IsValid is true exactly when Issues is empty.
type ValidationResult struct {
	LoanID           string                     `json:"loanId,omitempty"`
	DocumentID       string                     `json:"documentId,omitempty"`
	DocumentType     string                     `json:"documentType"`
	IsValid          bool                       `json:"isValid"`
	Issues           []Issue                    `json:"issues"`
	Warnings         []Issue                    `json:"warnings"`
	Info             []Issue                    `json:"info"`
	FieldValidations map[string]FieldValidation `json:"fieldValidations"`
	ValidatedAt      time.Time                  `json:"validatedAt"`
}

// NewValidationResult returns an empty, valid result for a document type.
func NewValidationResult(documentType string) *ValidationResult {
	return &ValidationResult{
		DocumentType:     documentType,
		IsValid:          true,
		Issues:           []Issue{},
		Warnings:         []Issue{},
		Info:             []Issue{},
		FieldValidations: map[string]FieldValidation{},
	}
}

// Add buckets an issue by severity and keeps IsValid in sync.
func (r *ValidationResult) Add(issue Issue) {
	switch issue.Severity {
	case SeverityCritical:
		r.Issues = append(r.Issues, issue)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, issue)
	default:
		r.Info = append(r.Info, issue)
	}
	r.IsValid = len(r.Issues) == 0
}

// DocumentRecord pairs a stored document with its most recent validation.
type DocumentRecord struct {
	DocumentID     string            `json:"documentId,omitempty"`
	DocumentType   string            `json:"documentType"`
	LastValidation *ValidationResult `json:"lastValidation,omitempty"`
}
