// internal/conditions/remedies.go
package conditions

import (
	"mortgage-underwriting/internal/rules"
	"mortgage-underwriting/pkg/catalog"
)

type remedy struct {
	Title  string
	Action string
}

var genericRemedy = remedy{
	Title:  "Document review required",
	Action: "Review the document with the borrower and obtain a corrected copy or a written explanation",
}

var remedies = map[string]remedy{
	rules.RuleRequiredField: {
		Title:  "Missing required information",
		Action: "Obtain a complete copy of the document showing the missing field",
	},
	catalog.ValidatorBorrowerName: {
		Title:  "Name does not match borrower",
		Action: "Obtain a name affidavit or a document issued in the borrower's legal name",
	},
	catalog.ValidatorBorrowerDOB: {
		Title:  "Date of birth mismatch",
		Action: "Verify identity with a government-issued ID and correct the application",
	},
	catalog.ValidatorNotExpired: {
		Title:  "Document expired",
		Action: "Request a current, unexpired document",
	},
	catalog.ValidatorWithin30Days: {
		Title:  "Document older than 30 days",
		Action: "Request a document dated within the last 30 days",
	},
	catalog.ValidatorWithin60Days: {
		Title:  "Document older than 60 days",
		Action: "Request a document dated within the last 60 days",
	},
	catalog.ValidatorSubjectProperty: {
		Title:  "Property address mismatch",
		Action: "Confirm the subject property address and obtain a corrected document",
	},
	catalog.RuleDocumentNotExpired: {
		Title:  "Document expired",
		Action: "Request a current, unexpired document",
	},
	catalog.RuleNameMatches: {
		Title:  "Name does not match borrower",
		Action: "Obtain a name affidavit or a corrected document",
	},
	catalog.RuleStatementNotTooOld: {
		Title:  "Statement is too old",
		Action: "Request the most recent statement covering the last 60 days",
	},
	catalog.RuleLargeDepositsNeedSourcing: {
		Title:  "Large deposits need sourcing",
		Action: "Obtain a letter of explanation and source documentation for each large deposit",
	},
	catalog.RuleNSFFeesPresent: {
		Title:  "NSF fees on statement",
		Action: "Obtain a letter of explanation for the overdraft activity",
	},
	catalog.RuleCoverageAdequate: {
		Title:  "Insufficient hazard coverage",
		Action: "Request an updated declaration page with dwelling coverage at least equal to the loan amount",
	},
	catalog.RuleValueSupportsLoan: {
		Title:  "LTV exceeds program limit",
		Action: "Reduce the loan amount, increase the down payment, or order a value reconsideration",
	},
	rules.CheckYTDCalculationMismatch: {
		Title:  "YTD figures inconsistent",
		Action: "Verify pay frequency and obtain a written verification of employment",
	},
	rules.CheckFederalTaxRequired: {
		Title:  "No federal tax withholding",
		Action: "Obtain a pay stub showing federal withholding or an explanation of exempt status",
	},
	rules.CheckWithholdingTooLow: {
		Title:  "Withholding suspiciously low",
		Action: "Verify the pay stub directly with the employer",
	},
	rules.CheckEmployerMismatch: {
		Title:  "Employer mismatch",
		Action: "Reconcile the employer on the document with the application and verify employment",
	},
	rules.CheckYTDIncomeShortfall: {
		Title:  "YTD income below stated income",
		Action: "Recalculate qualifying income from YTD earnings or document the income gap",
	},
	rules.CheckFontConsistencyReview: {
		Title:  "Pay stub integrity review",
		Action: "Inspect the pay stub for altered figures or mixed fonts",
	},
	rules.CheckEmployerFormatReview: {
		Title:  "Employer name format review",
		Action: "Compare the employer name across the pay stub, W-2 and verification of employment",
	},
	rules.CheckSSNMismatch: {
		Title:  "SSN mismatch",
		Action: "Obtain an SSA-89 verification and a corrected W-2 if needed",
	},
	rules.CheckIncomeVariance: {
		Title:  "Income variance",
		Action: "Reconcile W-2 wages with stated income and update qualifying income",
	},
	rules.CheckTaxYearOutdated: {
		Title:  "W-2 tax year outdated",
		Action: "Request the W-2 for the most recent completed tax year",
	},
	rules.CheckBox12Missing: {
		Title:  "Box 12 not captured",
		Action: "Review box 12 deductions on the W-2 image",
	},
	rules.CheckLowEffectiveTaxRate: {
		Title:  "Low effective tax rate",
		Action: "Confirm withholding elections with the borrower",
	},
	rules.CheckStateMismatch: {
		Title:  "Employer state differs from property state",
		Action: "Confirm commuting distance or relocation plans",
	},
	rules.CheckLargeDepositsUnsourced: {
		Title:  "Unsourced large deposits",
		Action: "Obtain source documentation for each large deposit",
	},
	rules.CheckNSFFeesDetected: {
		Title:  "NSF fees detected",
		Action: "Obtain a letter of explanation for the NSF activity",
	},
	rules.CheckInsufficientReserves: {
		Title:  "Insufficient reserves",
		Action: "Document additional assets to cover cash to close and two months of reserves",
	},
	rules.CheckStatementTooOld: {
		Title:  "Statement too old",
		Action: "Request the most recent bank statement",
	},
	rules.CheckNegativeBalance: {
		Title:  "Negative balance events",
		Action: "Obtain a letter of explanation for the negative balance",
	},
	rules.CheckAccountHolderMismatch: {
		Title:  "Account holder mismatch",
		Action: "Document the borrower's ownership of or access to the account",
	},
	rules.CheckLowAverageBalance: {
		Title:  "Low average balance",
		Action: "Review asset seasoning and obtain additional statements",
	},
	rules.CheckPossibleBusinessUse: {
		Title:  "Possible business use of account",
		Action: "Confirm the account is personal or apply self-employment guidelines",
	},
	rules.CheckIrregularDeposits: {
		Title:  "Irregular deposits",
		Action: "Obtain an explanation of non-payroll deposits",
	},
	rules.CheckStatementRecencyRequired: {
		Title:  "Statement not recent enough",
		Action: "Request a statement dated within the last 45 days",
	},
}

// newDocumentRules are the findings that can only be cleared with a fresh
// document rather than an explanation.
var newDocumentRules = map[string]bool{
	catalog.RuleDocumentNotExpired:      true,
	catalog.ValidatorNotExpired:         true,
	catalog.RuleStatementNotTooOld:      true,
	rules.CheckStatementTooOld:          true,
	rules.CheckStatementRecencyRequired: true,
	catalog.ValidatorWithin30Days:       true,
	catalog.ValidatorWithin60Days:       true,
	rules.CheckTaxYearOutdated:          true,
	"signatureRequired":                 true,
	"licenseRenewal":                    true,
}

func remedyFor(ruleID string) remedy {
	if r, ok := remedies[ruleID]; ok {
		return r
	}
	return genericRemedy
}

// RequiresNewDocument reports whether clearing a finding needs a new upload.
func RequiresNewDocument(ruleID string) bool {
	return newDocumentRules[ruleID]
}
