// internal/rules/validator_test.go
package rules

import (
	"errors"
	"testing"
	"time"

	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/pkg/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestValidator(t *testing.T) *Validator {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewValidator(c, nil, logger.NewTestLogger(t)).WithClock(func() time.Time { return fixedNow })
}

func createTestDocument(docType string, fields map[string]interface{}) *models.ExtractedDocument {
	return &models.ExtractedDocument{
		DocumentID:   "doc-" + docType,
		LoanID:       "loan-001",
		DocumentType: docType,
		ExtractedAt:  fixedNow,
		Confidence:   92,
		Fields:       fields,
	}
}

func createCleanPaystubFields() map[string]interface{} {
	return map[string]interface{}{
		"employeeName":       "Jane Doe",
		"employerName":       "ACME Corp.",
		"payPeriodEndDate":   daysAgo(5),
		"grossPay":           3000.0,
		"netPay":             2250.0,
		"ytdGrossIncome":     78000.0,
		"federalTaxWithheld": 420.0,
	}
}

func createCleanW2Fields() map[string]interface{} {
	return map[string]interface{}{
		"employeeName":             "Jane M Doe",
		"employeeSSN":              "123-45-0000",
		"employerName":             "Acme Corporation",
		"taxYear":                  "2024",
		"wagesTipsCompensation":    "$76,500.00",
		"federalIncomeTaxWithheld": 8100.0,
		"box12Codes":               []interface{}{"D 4500.00"},
		"employerState":            "IL",
	}
}

func createCleanBankFields() map[string]interface{} {
	return map[string]interface{}{
		"accountHolderName": "JANE DOE",
		"statementDate":     daysAgo(10),
		"statementEndDate":  daysAgo(10),
		"endingBalance":     42000.0,
		"averageBalance":    30000.0,
		"largeDeposits":     []interface{}{},
		"nsfFees":           []interface{}{},
		"transactionCount":  35.0,
	}
}

func ruleIDs(issues []models.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.RuleID)
	}
	return out
}

func findIssue(issues []models.Issue, ruleID string) (models.Issue, bool) {
	for _, i := range issues {
		if i.RuleID == ruleID {
			return i, true
		}
	}
	return models.Issue{}, false
}

func assertValidityInvariant(t *testing.T, r *models.ValidationResult) {
	t.Helper()
	assert.Equal(t, len(r.Issues) == 0, r.IsValid)
	for _, i := range r.Issues {
		assert.Equal(t, models.SeverityCritical, i.Severity)
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestValidateDocument_UnknownDocumentType(t *testing.T) {
	v := createTestValidator(t)

	result, err := v.ValidateDocument(createTestDocument("utility_bill", nil), "utility_bill", createTestLoan())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDocumentType))
	assert.Contains(t, err.Error(), "utility_bill")
}

func TestValidateDocument_CleanDocuments(t *testing.T) {
	v := createTestValidator(t)
	loan := createTestLoan()

	t.Run("paystub has only advisory warnings", func(t *testing.T) {
		r, err := v.ValidateDocument(createTestDocument(catalog.DocPaystub, createCleanPaystubFields()), catalog.DocPaystub, loan)
		require.NoError(t, err)

		assert.True(t, r.IsValid)
		assert.Empty(t, r.Issues)
		assert.ElementsMatch(t, []string{CheckFontConsistencyReview, CheckEmployerFormatReview}, ruleIDs(r.Warnings))
		assert.Equal(t, "loan-001", r.LoanID)
		assert.Equal(t, fixedNow, r.ValidatedAt)
		assert.True(t, r.FieldValidations["employeeName"].IsValid)
	})

	t.Run("w2", func(t *testing.T) {
		r, err := v.ValidateDocument(createTestDocument(catalog.DocW2, createCleanW2Fields()), catalog.DocW2, loan)
		require.NoError(t, err)

		assert.True(t, r.IsValid)
		assert.Empty(t, r.Issues)
		assert.Empty(t, r.Warnings)
	})

	t.Run("bank statement", func(t *testing.T) {
		r, err := v.ValidateDocument(createTestDocument(catalog.DocBankStatement, createCleanBankFields()), catalog.DocBankStatement, loan)
		require.NoError(t, err)

		assert.True(t, r.IsValid)
		assert.Empty(t, r.Issues)
		assert.Empty(t, r.Warnings)
	})
}

func TestValidateDocument_PaystubMissingFederalTax(t *testing.T) {
	v := createTestValidator(t)
	fields := map[string]interface{}{
		"employeeName":     "Jane Doe",
		"employerName":     "Acme Corporation",
		"payPeriodEndDate": daysAgo(3),
		"grossPay":         2000,
		"ytdGrossIncome":   60000,
	}

	r, err := v.ValidateDocument(createTestDocument(catalog.DocPaystub, fields), catalog.DocPaystub, createTestLoan())
	require.NoError(t, err)

	assert.False(t, r.IsValid)
	i, ok := findIssue(r.Issues, CheckFederalTaxRequired)
	require.True(t, ok, "issues: %v", ruleIDs(r.Issues))
	assert.Equal(t, models.SeverityCritical, i.Severity)
	assert.Equal(t, "federalTaxWithheld", i.Field)

	// 60000 against 2000 x 26 = 52000 is a 15% deviation.
	_, ok = findIssue(r.Warnings, CheckYTDCalculationMismatch)
	assert.True(t, ok)
	assertValidityInvariant(t, r)
}

func TestValidateDocument_PaystubDeepChecks(t *testing.T) {
	v := createTestValidator(t)
	loan := createTestLoan()

	tests := []struct {
		name     string
		mutate   func(f map[string]interface{})
		critical []string
	}{
		{
			name: "net pay too close to gross",
			mutate: func(f map[string]interface{}) {
				f["netPay"] = 2900.0
			},
			critical: []string{CheckWithholdingTooLow},
		},
		{
			name: "employer mismatch",
			mutate: func(f map[string]interface{}) {
				f["employerName"] = "Globex LLC"
			},
			critical: []string{CheckEmployerMismatch},
		},
		{
			name: "ytd far below prorated income",
			mutate: func(f map[string]interface{}) {
				// day 161 of 2025: 78000 x 161 / 365 = 34405; 80% is 27524
				f["payPeriodEndDate"] = "2025-06-10"
				f["grossPay"] = 800.0
				f["netPay"] = 600.0
				f["ytdGrossIncome"] = 20800.0
			},
			critical: []string{CheckYTDIncomeShortfall},
		},
		{
			name: "zero federal withholding",
			mutate: func(f map[string]interface{}) {
				f["federalTaxWithheld"] = "$0.00"
			},
			critical: []string{CheckFederalTaxRequired},
		},
		{
			name: "stale pay period",
			mutate: func(f map[string]interface{}) {
				f["payPeriodEndDate"] = daysAgo(45)
			},
			critical: []string{catalog.ValidatorWithin30Days},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := createCleanPaystubFields()
			tt.mutate(fields)

			r, err := v.ValidateDocument(createTestDocument(catalog.DocPaystub, fields), catalog.DocPaystub, loan)
			require.NoError(t, err)

			assert.False(t, r.IsValid)
			assert.ElementsMatch(t, tt.critical, ruleIDs(r.Issues))
			assertValidityInvariant(t, r)
		})
	}
}

func TestValidateDocument_W2SSNMismatch(t *testing.T) {
	v := createTestValidator(t)
	fields := createCleanW2Fields()
	fields["employeeSSN"] = "123-45-6789"

	r, err := v.ValidateDocument(createTestDocument(catalog.DocW2, fields), catalog.DocW2, createTestLoan())
	require.NoError(t, err)

	i, ok := findIssue(r.Issues, CheckSSNMismatch)
	require.True(t, ok)
	assert.Equal(t, models.SeverityCritical, i.Severity)
	assert.Contains(t, i.Message, "6789")
	assert.Contains(t, i.Message, "0000")
	assert.NotContains(t, i.Message, "123-45")
	assert.False(t, r.IsValid)
}

func TestValidateDocument_W2DeepChecks(t *testing.T) {
	v := createTestValidator(t)
	loan := createTestLoan()

	tests := []struct {
		name     string
		mutate   func(f map[string]interface{})
		critical []string
		warnings []string
	}{
		{
			name: "wages far from stated income",
			mutate: func(f map[string]interface{}) {
				f["wagesTipsCompensation"] = 52000.0
				f["federalIncomeTaxWithheld"] = 5200.0
			},
			critical: []string{CheckIncomeVariance},
		},
		{
			name: "outdated tax year",
			mutate: func(f map[string]interface{}) {
				f["taxYear"] = 2022.0
			},
			critical: []string{CheckTaxYearOutdated},
		},
		{
			name: "missing box 12 and other state",
			mutate: func(f map[string]interface{}) {
				delete(f, "box12Codes")
				f["employerState"] = "WI"
			},
			warnings: []string{CheckBox12Missing, CheckStateMismatch},
		},
		{
			name: "low effective tax rate",
			mutate: func(f map[string]interface{}) {
				f["federalIncomeTaxWithheld"] = 1200.0
			},
			warnings: []string{CheckLowEffectiveTaxRate},
		},
		{
			name: "employer mismatch",
			mutate: func(f map[string]interface{}) {
				f["employerName"] = "Initech"
			},
			critical: []string{CheckEmployerMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := createCleanW2Fields()
			tt.mutate(fields)

			r, err := v.ValidateDocument(createTestDocument(catalog.DocW2, fields), catalog.DocW2, loan)
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.critical, ruleIDs(r.Issues))
			assert.ElementsMatch(t, tt.warnings, ruleIDs(r.Warnings))
			assertValidityInvariant(t, r)
		})
	}
}

func TestMinimumTaxYear(t *testing.T) {
	assert.Equal(t, 2023, MinimumTaxYear(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, MinimumTaxYear(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, MinimumTaxYear(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)))
}

func TestValidateDocument_BankStatementAge(t *testing.T) {
	v := createTestValidator(t)
	loan := createTestLoan()

	t.Run("end date 70 days old", func(t *testing.T) {
		fields := createCleanBankFields()
		fields["statementEndDate"] = daysAgo(70)

		r, err := v.ValidateDocument(createTestDocument(catalog.DocBankStatement, fields), catalog.DocBankStatement, loan)
		require.NoError(t, err)

		_, ok := findIssue(r.Issues, CheckStatementTooOld)
		assert.True(t, ok)
		_, ok = findIssue(r.Issues, CheckStatementRecencyRequired)
		assert.False(t, ok)
		assert.False(t, r.IsValid)
	})

	t.Run("statement date 50 days old", func(t *testing.T) {
		fields := createCleanBankFields()
		fields["statementEndDate"] = daysAgo(70)
		fields["statementDate"] = daysAgo(50)

		r, err := v.ValidateDocument(createTestDocument(catalog.DocBankStatement, fields), catalog.DocBankStatement, loan)
		require.NoError(t, err)

		_, ok := findIssue(r.Issues, CheckStatementTooOld)
		assert.True(t, ok)
		i, ok := findIssue(r.Issues, CheckStatementRecencyRequired)
		require.True(t, ok)
		assert.Contains(t, i.Message, "50 days")
	})
}

func TestValidateDocument_BankStatementDeepChecks(t *testing.T) {
	v := createTestValidator(t)
	loan := createTestLoan()

	tests := []struct {
		name     string
		mutate   func(f map[string]interface{})
		critical []string
		warnings []string
	}{
		{
			name: "large deposits",
			mutate: func(f map[string]interface{}) {
				f["largeDeposits"] = []interface{}{map[string]interface{}{"amount": 15000.0}}
			},
			critical: []string{CheckLargeDepositsUnsourced},
			warnings: []string{catalog.RuleLargeDepositsNeedSourcing},
		},
		{
			name: "nsf fees",
			mutate: func(f map[string]interface{}) {
				f["nsfFees"] = []interface{}{35.0, 35.0}
			},
			critical: []string{CheckNSFFeesDetected},
			warnings: []string{catalog.RuleNSFFeesPresent},
		},
		{
			name: "insufficient reserves",
			mutate: func(f map[string]interface{}) {
				f["endingBalance"] = 21000.0
			},
			critical: []string{CheckInsufficientReserves},
		},
		{
			name: "negative balance",
			mutate: func(f map[string]interface{}) {
				f["negativeBalanceEvents"] = []interface{}{"2025-05-20"}
			},
			critical: []string{CheckNegativeBalance},
		},
		{
			name: "holder, balance, volume and deposit pattern",
			mutate: func(f map[string]interface{}) {
				f["accountHolderName"] = "Jane Smith"
				f["averageBalance"] = 400.0
				f["transactionCount"] = "140"
				f["irregularDeposits"] = true
			},
			warnings: []string{CheckAccountHolderMismatch, CheckLowAverageBalance, CheckPossibleBusinessUse, CheckIrregularDeposits},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := createCleanBankFields()
			tt.mutate(fields)

			r, err := v.ValidateDocument(createTestDocument(catalog.DocBankStatement, fields), catalog.DocBankStatement, loan)
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.critical, ruleIDs(r.Issues))
			assert.ElementsMatch(t, tt.warnings, ruleIDs(r.Warnings))
			assertValidityInvariant(t, r)
		})
	}
}

func TestValidateDocument_ReservesShortfallMessage(t *testing.T) {
	v := createTestValidator(t)
	fields := createCleanBankFields()
	fields["endingBalance"] = 21000.0

	r, err := v.ValidateDocument(createTestDocument(catalog.DocBankStatement, fields), catalog.DocBankStatement, createTestLoan())
	require.NoError(t, err)

	i, ok := findIssue(r.Issues, CheckInsufficientReserves)
	require.True(t, ok)
	// 20000 cash to close + 2 x 2000 payment = 24000 required
	assert.Contains(t, i.Message, "$24000.00")
	assert.Contains(t, i.Message, "shortfall $3000.00")
}

func TestValidateDocument_DeclarativeRules(t *testing.T) {
	v := createTestValidator(t)

	t.Run("appraisal ltv exceeds product limit", func(t *testing.T) {
		loan := createTestLoan()
		loan.MISMO.LoanProductType = "jumbo"
		fields := map[string]interface{}{
			"propertyAddress": "123 Main Street",
			"appraisedValue":  320000.0,
		}

		r, err := v.ValidateDocument(createTestDocument("appraisal", fields), "appraisal", loan)
		require.NoError(t, err)

		i, ok := findIssue(r.Issues, catalog.RuleValueSupportsLoan)
		require.True(t, ok)
		assert.Contains(t, i.Message, "93.75%")
		assert.Contains(t, i.Message, "90.00%")
	})

	t.Run("appraisal within default limit", func(t *testing.T) {
		loan := createTestLoan()
		loan.MISMO.LoanProductType = "portfolio"
		fields := map[string]interface{}{
			"propertyAddress": "123 Main Street",
			"appraisedValue":  320000.0,
		}

		r, err := v.ValidateDocument(createTestDocument("appraisal", fields), "appraisal", loan)
		require.NoError(t, err)
		assert.True(t, r.IsValid)
	})

	t.Run("insurance coverage and expiry", func(t *testing.T) {
		fields := map[string]interface{}{
			"policyNumber":     "HO-5521",
			"propertyAddress":  "123 Main St",
			"dwellingCoverage": "$250,000",
			"expirationDate":   daysAgo(2),
		}

		r, err := v.ValidateDocument(createTestDocument("homeowners_insurance", fields), "homeowners_insurance", createTestLoan())
		require.NoError(t, err)

		assert.ElementsMatch(t,
			[]string{catalog.RuleCoverageAdequate, catalog.RuleDocumentNotExpired, catalog.ValidatorNotExpired},
			ruleIDs(r.Issues))
	})

	t.Run("tax return name rule is a warning", func(t *testing.T) {
		fields := map[string]interface{}{
			"taxpayerName":        "John Roe",
			"taxYear":             "2024",
			"adjustedGrossIncome": 81000.0,
		}

		r, err := v.ValidateDocument(createTestDocument("tax_return", fields), "tax_return", createTestLoan())
		require.NoError(t, err)

		assert.Equal(t, []string{catalog.ValidatorBorrowerName}, ruleIDs(r.Issues))
		assert.Equal(t, []string{catalog.RuleNameMatches}, ruleIDs(r.Warnings))
		assert.Empty(t, r.Info, "twoYearsRequired always passes")
	})

	t.Run("missing required fields", func(t *testing.T) {
		r, err := v.ValidateDocument(createTestDocument("drivers_license", map[string]interface{}{"fullName": nil}), "drivers_license", createTestLoan())
		require.NoError(t, err)

		assert.Equal(t, []string{RuleRequiredField, RuleRequiredField, RuleRequiredField}, ruleIDs(r.Issues))
		assert.False(t, r.FieldValidations["fullName"].IsValid)
		assert.True(t, r.FieldValidations["address"].IsValid)
	})
}

// ==========================
// Property Tests
// ==========================

func TestValidateDocument_Deterministic(t *testing.T) {
	v := createTestValidator(t)
	loan := createTestLoan()

	docs := map[string]map[string]interface{}{
		catalog.DocPaystub:       createCleanPaystubFields(),
		catalog.DocW2:            {"employeeSSN": "999-99-9999", "taxYear": "2019"},
		catalog.DocBankStatement: {"statementDate": daysAgo(90), "largeDeposits": []interface{}{1.0}},
		"drivers_license":        {},
	}

	for docType, fields := range docs {
		first, err := v.ValidateDocument(createTestDocument(docType, fields), docType, loan)
		require.NoError(t, err)
		second, err := v.ValidateDocument(createTestDocument(docType, fields), docType, loan)
		require.NoError(t, err)

		assert.Equal(t, first, second, docType)
		assertValidityInvariant(t, first)
	}
}

func TestValidateDocument_CustomRegistry(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	checks := Registry{}
	checks.Register("letter_of_explanation", CheckFunc{
		Name: "signatureRequired",
		Fn: func(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) []models.Issue {
			if toBool(doc.Field("signed")) {
				return nil
			}
			return []models.Issue{{RuleID: "signatureRequired", Severity: models.SeverityCritical, Message: "unsigned"}}
		},
	})
	v := NewValidator(c, checks, logger.NewNoOpLogger()).WithClock(func() time.Time { return fixedNow })

	fields := map[string]interface{}{"borrowerName": "Jane Doe", "subject": "credit inquiry"}
	r, err := v.ValidateDocument(createTestDocument("letter_of_explanation", fields), "letter_of_explanation", createTestLoan())
	require.NoError(t, err)
	assert.Equal(t, []string{"signatureRequired"}, ruleIDs(r.Issues))

	// The paystub battery is not part of this registry.
	r, err = v.ValidateDocument(createTestDocument(catalog.DocPaystub, createCleanPaystubFields()), catalog.DocPaystub, createTestLoan())
	require.NoError(t, err)
	assert.Empty(t, r.Warnings)
}
