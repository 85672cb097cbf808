// internal/workers/underwriting/build-scorecard/models.go
package buildscorecard

import "mortgage-underwriting/internal/models"

type Input struct {
	LoanContext models.LoanContext `json:"loanContext"`
}

type Output struct {
	Scorecard       *models.Scorecard `json:"scorecard"`
	OverallScore    int               `json:"overallScore"`
	ReadyToClose    bool              `json:"readyToClose"`
	MissingCount    int               `json:"missingCount"`
	UnresolvedCount int               `json:"unresolvedCount"`
	DocumentsOnFile int               `json:"documentsOnFile"`
}
