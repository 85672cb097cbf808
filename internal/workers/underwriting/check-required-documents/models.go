// internal/workers/underwriting/check-required-documents/models.go
package checkrequireddocuments

import "mortgage-underwriting/internal/models"

type Input struct {
	LoanContext models.LoanContext `json:"loanContext"`
}

type RequiredDocument struct {
	DocumentType       string `json:"documentType"`
	Name               string `json:"name"`
	Category           string `json:"category"`
	Received           bool   `json:"received"`
	ExtractionGuidance string `json:"extractionGuidance,omitempty"`
}

type Output struct {
	RequiredDocuments []RequiredDocument       `json:"requiredDocuments"`
	MissingDocuments  []models.MissingDocument `json:"missingDocuments"`
	RequiredCount     int                      `json:"requiredCount"`
	MissingCount      int                      `json:"missingCount"`
	AllReceived       bool                     `json:"allReceived"`
	CatalogVersion    string                   `json:"catalogVersion"`
}
