// internal/workers/underwriting/generate-conditions/models.go
package generateconditions

import "mortgage-underwriting/internal/models"

type Input struct {
	LoanContext      models.LoanContext       `json:"loanContext"`
	ValidationResult *models.ValidationResult `json:"validationResult"`
	DocumentType     string                   `json:"documentType,omitempty"`
}

type Output struct {
	Conditions        []models.Condition `json:"conditions"`
	ConditionCount    int                `json:"conditionCount"`
	CriticalCount     int                `json:"criticalCount"`
	HasOpenConditions bool               `json:"hasOpenConditions"`
}
