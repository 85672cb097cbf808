// internal/workers/underwriting/resolve-condition/models.go
package resolvecondition

import "mortgage-underwriting/internal/models"

const (
	ActionClear           = "clear"
	ActionRequestDocument = "request-document"
)

type Input struct {
	ConditionID           string `json:"conditionId"`
	Action                string `json:"action"`
	Notes                 string `json:"notes,omitempty"`
	RequestedDocumentType string `json:"requestedDocumentType,omitempty"`
}

type Output struct {
	Condition   *models.Condition      `json:"condition"`
	Status      models.ConditionStatus `json:"status"`
	LoanID      string                 `json:"loanId"`
	OpenForLoan int                    `json:"openForLoan"`
	AllResolved bool                   `json:"allResolved"`
}
