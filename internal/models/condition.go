// internal/models/condition.go
package models

import "time"

type ConditionType string

const (
	ConditionCritical ConditionType = "critical"
	ConditionWarning  ConditionType = "warning"
)

type ConditionStatus string

const (
	StatusOpen            ConditionStatus = "open"
	StatusCleared         ConditionStatus = "cleared"
	StatusPendingDocument ConditionStatus = "pending-document"
)

const (
	CategoryDocumentIssue      = "document-issue"
	CategoryNeedsClarification = "needs-clarification"
)

// Condition is an underwriting action item raised from a validation finding.
// It is never deleted; only its status moves forward.
type Condition struct {
	ID                    string          `json:"id"`
	LoanID                string          `json:"loanId"`
	DocumentType          string          `json:"documentType"`
	Type                  ConditionType   `json:"type"`
	Category              string          `json:"category"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Field                 string          `json:"field,omitempty"`
	RuleID                string          `json:"ruleId,omitempty"`
	Severity              Severity        `json:"severity"`
	Status                ConditionStatus `json:"status"`
	SuggestedAction       string          `json:"suggestedAction"`
	RequiresNewDocument   bool            `json:"requiresNewDocument"`
	ResolutionNotes       string          `json:"resolutionNotes,omitempty"`
	RequestedDocumentType string          `json:"requestedDocumentType,omitempty"`
	RequestNotes          string          `json:"requestNotes,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
	ClearedAt             *time.Time      `json:"clearedAt,omitempty"`
	RequestedAt           *time.Time      `json:"requestedAt,omitempty"`
}

func (c *Condition) IsResolved() bool {
	return c.Status == StatusCleared
}
