// internal/models/scorecard.go
package models

import "time"

type Scorecard struct {
	LoanID               string            `json:"loanId"`
	OverallScore         int               `json:"overallScore"`
	ReadyToClose         bool              `json:"readyToClose"`
	Completeness         CompletenessScore `json:"documentCompleteness"`
	Accuracy             AccuracyScore     `json:"dataAccuracy"`
	Compliance           ComplianceScore   `json:"compliance"`
	MissingDocuments     []MissingDocument `json:"missingDocuments"`
	UnresolvedConditions []Condition       `json:"unresolvedConditions"`
	GeneratedAt          time.Time         `json:"generatedAt"`
}

type CompletenessScore struct {
	Score    int `json:"score"`
	Weight   int `json:"weight"`
	Required int `json:"required"`
	Present  int `json:"present"`
	Missing  int `json:"missing"`
}

type AccuracyScore struct {
	Score          int `json:"score"`
	Weight         int `json:"weight"`
	ValidDocuments int `json:"validDocuments"`
	TotalDocuments int `json:"totalDocuments"`
}

type ComplianceScore struct {
	Score          int `json:"score"`
	Weight         int `json:"weight"`
	CriticalIssues int `json:"criticalIssues"`
	WarningIssues  int `json:"warningIssues"`
}

type MissingDocument struct {
	DocumentType string `json:"documentType"`
	Name         string `json:"name"`
	Category     string `json:"category"`
}
