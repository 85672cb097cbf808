// internal/rules/checks_bank.go
package rules

import (
	"time"

	"mortgage-underwriting/internal/models"
)

const (
	CheckLargeDepositsUnsourced   = "largeDepositsUnsourced"
	CheckNSFFeesDetected          = "nsfFeesDetected"
	CheckInsufficientReserves     = "insufficientReserves"
	CheckStatementTooOld          = "statementTooOld"
	CheckNegativeBalance          = "negativeBalance"
	CheckAccountHolderMismatch    = "accountHolderMismatch"
	CheckLowAverageBalance        = "lowAverageBalance"
	CheckPossibleBusinessUse      = "possibleBusinessUse"
	CheckIrregularDeposits        = "irregularDeposits"
	CheckStatementRecencyRequired = "statementRecencyRequired"
)

const (
	reserveMonths           = 2
	statementMaxAgeDays     = 60
	minAverageBalanceRatio  = 0.10
	businessUseTransactions = 100
)

func bankStatementChecks() []Check {
	return []Check{
		single(CheckLargeDepositsUnsourced, bankLargeDeposits),
		single(CheckNSFFeesDetected, bankNSF),
		single(CheckInsufficientReserves, bankReserves),
		single(CheckStatementTooOld, bankStatementAge),
		single(CheckNegativeBalance, bankNegativeBalance),
		single(CheckAccountHolderMismatch, bankAccountHolder),
		single(CheckLowAverageBalance, bankAverageBalance),
		single(CheckPossibleBusinessUse, bankBusinessUse),
		single(CheckIrregularDeposits, bankIrregularDeposits),
	}
}

func bankLargeDeposits(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	n := count(doc.Field("largeDeposits"))
	if n == 0 {
		return nil
	}
	i := issue(CheckLargeDepositsUnsourced, "largeDeposits", models.SeverityCritical,
		"%d large deposits require sourcing documentation", n)
	return &i
}

func bankNSF(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	n := count(doc.Field("nsfFees"))
	if n == 0 {
		return nil
	}
	i := issue(CheckNSFFeesDetected, "nsfFees", models.SeverityCritical,
		"%d NSF or overdraft fees found on the statement", n)
	return &i
}

// bankReserves requires cash to close plus two months of payments.
func bankReserves(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
	balance, ok := toFloat(doc.Field("endingBalance"))
	if !ok {
		return nil
	}
	required := loan.Transaction.CashToClose + reserveMonths*loan.MISMO.MonthlyPayment
	if balance >= required {
		return nil
	}
	i := issue(CheckInsufficientReserves, "endingBalance", models.SeverityCritical,
		"Ending balance $%.2f is below required funds $%.2f (shortfall $%.2f)",
		balance, required, required-balance)
	return &i
}

func bankStatementAge(doc *models.ExtractedDocument, _ *models.LoanContext, now time.Time) *models.Issue {
	end, ok := parseDate(doc.Field("statementEndDate"))
	if !ok || !olderThan(end, now, statementMaxAgeDays) {
		return nil
	}
	i := issue(CheckStatementTooOld, "statementEndDate", models.SeverityCritical,
		"Statement ended %d days ago; must be within %d days", daysSince(end, now), statementMaxAgeDays)
	return &i
}

func bankNegativeBalance(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	n := count(doc.Field("negativeBalanceEvents"))
	if n == 0 {
		return nil
	}
	i := issue(CheckNegativeBalance, "negativeBalanceEvents", models.SeverityCritical,
		"Account went negative %d times during the statement period", n)
	return &i
}

func bankAccountHolder(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
	holder, ok := toString(doc.Field("accountHolderName"))
	if !ok || containsName(holder, loan.Borrower.FirstName, loan.Borrower.LastName) {
		return nil
	}
	i := issue(CheckAccountHolderMismatch, "accountHolderName", models.SeverityWarning,
		"Account holder %q does not match borrower %s %s", holder, loan.Borrower.FirstName, loan.Borrower.LastName)
	return &i
}

func bankAverageBalance(doc *models.ExtractedDocument, loan *models.LoanContext, _ time.Time) *models.Issue {
	avg, ok := toFloat(doc.Field("averageBalance"))
	income := loan.Ratios.GrossMonthlyIncome
	if !ok || income <= 0 || avg >= income*minAverageBalanceRatio {
		return nil
	}
	i := issue(CheckLowAverageBalance, "averageBalance", models.SeverityWarning,
		"Average balance $%.2f is below 10%% of gross monthly income $%.2f", avg, income)
	return &i
}

func bankBusinessUse(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	n, ok := toFloat(doc.Field("transactionCount"))
	if !ok || n <= businessUseTransactions {
		return nil
	}
	i := issue(CheckPossibleBusinessUse, "transactionCount", models.SeverityWarning,
		"%d transactions in one period suggests business use of a personal account", int(n))
	return &i
}

func bankIrregularDeposits(doc *models.ExtractedDocument, _ *models.LoanContext, _ time.Time) *models.Issue {
	if !toBool(doc.Field("irregularDeposits")) {
		return nil
	}
	i := issue(CheckIrregularDeposits, "irregularDeposits", models.SeverityWarning,
		"Deposit pattern is irregular; explain non-payroll deposits")
	return &i
}
