// internal/scorecard/builder.go
package scorecard

import (
	"math"
	"time"

	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/conditions"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/internal/rules"
	"mortgage-underwriting/pkg/catalog"
)

const (
	criticalPenalty = 10
	warningPenalty  = 5
)

// Builder computes loan readiness from the latest validation of each
// document and the loan's conditions. Scorecards are never stored.
type Builder struct {
	catalog *catalog.Catalog
	logger  logger.Logger
	now     func() time.Time
}

func NewBuilder(c *catalog.Catalog, log logger.Logger) *Builder {
	return &Builder{
		catalog: c,
		logger:  log.WithFields(map[string]interface{}{"component": "scorecard-builder"}),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build assembles the scorecard. documents holds one record per uploaded
// document; a record without a validation counts as present but not valid.
func (b *Builder) Build(loan *models.LoanContext, documents []models.DocumentRecord, conds []models.Condition) (*models.Scorecard, error) {
	required, err := rules.RequiredDocuments(loan, b.catalog)
	if err != nil {
		return nil, err
	}

	present := map[string]bool{}
	for _, d := range documents {
		present[d.DocumentType] = true
	}
	missing := []models.MissingDocument{}
	for _, dt := range required {
		if !present[dt.ID] {
			missing = append(missing, models.MissingDocument{
				DocumentType: dt.ID,
				Name:         dt.Name,
				Category:     dt.Category,
			})
		}
	}

	completeness := 100
	if len(required) > 0 {
		completeness = percent(len(required)-len(missing), len(required))
	}

	valid, critical, warnings := 0, 0, 0
	for _, d := range documents {
		if d.LastValidation == nil {
			continue
		}
		if d.LastValidation.IsValid {
			valid++
		}
		critical += len(d.LastValidation.Issues)
		warnings += len(d.LastValidation.Warnings)
	}
	accuracy := 0
	if len(documents) > 0 {
		accuracy = percent(valid, len(documents))
	}

	compliance := 100 - criticalPenalty*critical - warningPenalty*warnings
	if compliance < 0 {
		compliance = 0
	}

	unresolved := conditions.FilterUnresolved(conds)
	ready := len(missing) == 0 && critical == 0 && len(unresolved) == 0

	w := b.catalog.Scoring
	overall := float64(completeness*w.Completeness)/100 +
		float64(accuracy*w.Accuracy)/100 +
		float64(compliance*w.Compliance)/100
	if ready {
		overall += catalog.ReadinessBonus
	}

	loanID := ""
	if loan != nil {
		loanID = loan.LoanID
	}
	card := &models.Scorecard{
		LoanID:       loanID,
		OverallScore: int(math.Round(overall)),
		ReadyToClose: ready,
		Completeness: models.CompletenessScore{
			Score:    completeness,
			Weight:   w.Completeness,
			Required: len(required),
			Present:  len(required) - len(missing),
			Missing:  len(missing),
		},
		Accuracy: models.AccuracyScore{
			Score:          accuracy,
			Weight:         w.Accuracy,
			ValidDocuments: valid,
			TotalDocuments: len(documents),
		},
		Compliance: models.ComplianceScore{
			Score:          compliance,
			Weight:         w.Compliance,
			CriticalIssues: critical,
			WarningIssues:  warnings,
		},
		MissingDocuments:     missing,
		UnresolvedConditions: unresolved,
		GeneratedAt:          b.now(),
	}

	b.logger.Debug("scorecard built", map[string]interface{}{
		"loanId":       loanID,
		"overallScore": card.OverallScore,
		"readyToClose": ready,
	})
	return card, nil
}

func percent(part, whole int) int {
	return int(math.Round(100 * float64(part) / float64(whole)))
}
