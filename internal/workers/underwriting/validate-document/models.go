// internal/workers/underwriting/validate-document/models.go
package validatedocument

import "mortgage-underwriting/internal/models"

type Input struct {
	LoanContext models.LoanContext       `json:"loanContext"`
	Document    models.ExtractedDocument `json:"document"`
	// DocumentType overrides document.documentType when the process has
	// already classified the upload.
	DocumentType string `json:"documentType,omitempty"`
}

type Output struct {
	ValidationResult *models.ValidationResult `json:"validationResult"`
	IsValid          bool                     `json:"isValid"`
	CriticalCount    int                      `json:"criticalCount"`
	WarningCount     int                      `json:"warningCount"`
}
