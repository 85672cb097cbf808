// internal/rules/checks_w2.go
package rules

import (
	"math"
	"strconv"
	"strings"
	"time"

	"mortgage-underwriting/internal/models"
)

const (
	CheckSSNMismatch         = "ssnMismatch"
	CheckIncomeVariance      = "incomeVariance"
	CheckTaxYearOutdated     = "taxYearOutdated"
	CheckBox12Missing        = "box12Missing"
	CheckLowEffectiveTaxRate = "lowEffectiveTaxRate"
	CheckStateMismatch       = "stateMismatch"
)

const (
	maxIncomeVariance   = 0.15
	minEffectiveTaxRate = 0.05
)

func w2Checks() []Check {
	return []Check{
		single(CheckSSNMismatch, w2SSN),
		single(CheckIncomeVariance, w2IncomeVariance),
		single(CheckEmployerMismatch, employerCheck("employerName", "W-2")),
		single(CheckTaxYearOutdated, w2TaxYear),
		single(CheckBox12Missing, w2Box12),
		single(CheckLowEffectiveTaxRate, w2EffectiveTaxRate),
		single(CheckStateMismatch, w2State),
	}
}

func w2SSN(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
	raw, ok := toString(doc.Field("employeeSSN"))
	onDoc, stated := digits(raw), digits(loan.Borrower.SSN)
	if !ok || onDoc == "" || stated == "" || onDoc == stated {
		return nil
	}
	i := issue(CheckSSNMismatch, "employeeSSN", models.SeverityCritical,
		"SSN on W-2 (ending %s) does not match application SSN (ending %s)", lastN(onDoc, 4), lastN(stated, 4))
	return &i
}

func w2IncomeVariance(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
	wages, ok := toFloat(doc.Field("wagesTipsCompensation"))
	stated := loan.Employment.BaseIncome
	if !ok || wages <= 0 || stated <= 0 {
		return nil
	}
	variance := math.Abs(wages-stated) / stated
	if variance <= maxIncomeVariance {
		return nil
	}
	i := issue(CheckIncomeVariance, "wagesTipsCompensation", models.SeverityCritical,
		"W-2 wages $%.2f differ %.0f%% from stated annual income $%.2f", wages, variance*100, stated)
	return &i
}

// MinimumTaxYear is the oldest acceptable W-2 year. Once April arrives the
// prior year's forms are expected to be available.
func MinimumTaxYear(now time.Time) int {
	if now.Month() >= time.April {
		return now.Year() - 1
	}
	return now.Year() - 2
}

func w2TaxYear(doc *models.ExtractedDocument, _ *models.LoanContext, now time.Time) *models.Issue {
	raw, ok := toString(doc.Field("taxYear"))
	if !ok {
		return nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	minYear := MinimumTaxYear(now)
	if year >= minYear {
		return nil
	}
	i := issue(CheckTaxYearOutdated, "taxYear", models.SeverityCritical,
		"W-2 is for tax year %d; the most recent completed year (%d) is required", year, minYear)
	return &i
}

func w2Box12(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	v := doc.Field("box12Codes")
	if count(v) > 0 {
		return nil
	}
	if s, ok := toString(v); ok && s != "" {
		return nil
	}
	i := issue(CheckBox12Missing, "box12Codes", models.SeverityWarning,
		"Box 12 codes were not captured; confirm retirement and benefit deductions")
	return &i
}

func w2EffectiveTaxRate(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	wages, okW := toFloat(doc.Field("wagesTipsCompensation"))
	withheld, okT := toFloat(doc.Field("federalIncomeTaxWithheld"))
	if !okW || !okT || wages <= 0 {
		return nil
	}
	rate := withheld / wages
	if rate >= minEffectiveTaxRate {
		return nil
	}
	i := issue(CheckLowEffectiveTaxRate, "federalIncomeTaxWithheld", models.SeverityWarning,
		"Effective federal tax rate is %.1f%%", rate*100)
	return &i
}

func w2State(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
	state, ok := toString(doc.Field("employerState"))
	propertyState := loan.PropertyState()
	if !ok || propertyState == "" || strings.EqualFold(state, propertyState) {
		return nil
	}
	i := issue(CheckStateMismatch, "employerState", models.SeverityWarning,
		"Employer state %s differs from property state %s", state, propertyState)
	return &i
}
