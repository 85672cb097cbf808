// internal/rules/checks_paystub.go
package rules

import (
	"math"
	"time"

	"mortgage-underwriting/internal/models"
)

const (
	CheckYTDCalculationMismatch = "ytdCalculationMismatch"
	CheckFederalTaxRequired     = "federalTaxRequired"
	CheckWithholdingTooLow      = "withholdingTooLow"
	CheckEmployerMismatch       = "employerMismatch"
	CheckYTDIncomeShortfall     = "ytdIncomeShortfall"
	CheckFontConsistencyReview  = "fontConsistencyReview"
	CheckEmployerFormatReview   = "employerFormatReview"
)

const (
	biweeklyPeriods       = 26
	ytdTolerance          = 0.10
	maxNetToGrossRatio    = 0.85
	minProratedYTDPortion = 0.80
)

func paystubChecks() []Check {
	return []Check{
		single(CheckYTDCalculationMismatch, paystubYTDArithmetic),
		single(CheckFederalTaxRequired, paystubFederalTax),
		single(CheckWithholdingTooLow, paystubNetToGross),
		single(CheckEmployerMismatch, employerCheck("employerName", "pay stub")),
		single(CheckYTDIncomeShortfall, paystubYTDShortfall),
		CheckFunc{Name: "paystubSpecialistReview", Fn: paystubAdvisories},
	}
}

// paystubYTDArithmetic compares YTD with a full year of biweekly periods at
// the current gross.
func paystubYTDArithmetic(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	gross, okG := toFloat(doc.Field("grossPay"))
	ytd, okY := toFloat(doc.Field("ytdGrossIncome"))
	if !okG || !okY || gross <= 0 {
		return nil
	}
	expected := gross * biweeklyPeriods
	deviation := math.Abs(ytd-expected) / expected
	if deviation <= ytdTolerance {
		return nil
	}
	i := issue(CheckYTDCalculationMismatch, "ytdGrossIncome", models.SeverityWarning,
		"YTD gross $%.2f deviates %.0f%% from the expected $%.2f (gross pay x %d periods)",
		ytd, deviation*100, expected, biweeklyPeriods)
	return &i
}

func paystubFederalTax(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	if v, ok := toFloat(doc.Field("federalTaxWithheld")); ok && v != 0 {
		return nil
	}
	i := issue(CheckFederalTaxRequired, "federalTaxWithheld", models.SeverityCritical,
		"Federal tax withholding is missing or zero")
	return &i
}

func paystubNetToGross(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	gross, okG := toFloat(doc.Field("grossPay"))
	net, okN := toFloat(doc.Field("netPay"))
	if !okG || !okN || gross <= 0 {
		return nil
	}
	ratio := net / gross
	if ratio <= maxNetToGrossRatio {
		return nil
	}
	i := issue(CheckWithholdingTooLow, "netPay", models.SeverityCritical,
		"Net pay is %.0f%% of gross pay; withholding is suspiciously low", ratio*100)
	return &i
}

// paystubYTDShortfall pro-rates stated annual income to the pay period end
// date and flags YTD income more than 20% below it.
func paystubYTDShortfall(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
	annual := loan.Employment.BaseIncome
	ytd, okY := toFloat(doc.Field("ytdGrossIncome"))
	end, okD := parseDate(doc.Field("payPeriodEndDate"))
	if annual <= 0 || !okY || !okD {
		return nil
	}
	expected := annual * float64(end.YearDay()) / 365
	if ytd >= expected*minProratedYTDPortion {
		return nil
	}
	i := issue(CheckYTDIncomeShortfall, "ytdGrossIncome", models.SeverityCritical,
		"YTD income $%.2f is more than 20%% below the expected $%.2f for day %d of the year",
		ytd, expected, end.YearDay())
	return &i
}

// paystubAdvisories always asks for the manual reviews a document
// specialist would perform.
func paystubAdvisories(_ *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) []models.Issue {
	return []models.Issue{
		issue(CheckFontConsistencyReview, "", models.SeverityWarning,
			"Review the pay stub for mixed fonts or altered figures"),
		issue(CheckEmployerFormatReview, "employerName", models.SeverityWarning,
			"Confirm the employer name format matches the W-2 and verification of employment"),
	}
}

func employerCheck(field, docLabel string) func(*models.ExtractedDocument, *models.LoanContext, time.Time) *models.Issue {
	return func(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
		onDoc, ok := toString(doc.Field(field))
		stated := loan.Employment.EmployerName
		if !ok || stated == "" || employersMatch(onDoc, stated) {
			return nil
		}
		i := issue(CheckEmployerMismatch, field, models.SeverityCritical,
			"Employer on %s %q does not match application employer %q", docLabel, onDoc, stated)
		return &i
	}
}
