// internal/rules/docrules.go
package rules

import (
	"fmt"
	"time"

	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/pkg/catalog"
)

// ruleEnv is what a declarative document rule sees.
type ruleEnv struct {
	rule    catalog.DocumentRule
	fields  map[string]interface{}
	loan    *models.LoanContext
	catalog *catalog.Catalog
	now     time.Time
}

// ruleFunc reports whether the rule failed and an optional detail that is
// appended to the declared message.
type ruleFunc func(env ruleEnv) (failed bool, detail string)

var documentRules = map[string]ruleFunc{
	catalog.RuleDocumentNotExpired:        ruleDocumentNotExpired,
	catalog.RuleNameMatches:               ruleNameMatches,
	catalog.RuleStatementNotTooOld:        ruleStatementNotTooOld,
	catalog.RuleLargeDepositsNeedSourcing: ruleLargeDepositsNeedSourcing,
	catalog.RuleNSFFeesPresent:            ruleNSFFeesPresent,
	catalog.RuleTwoYearsRequired:          ruleTwoYearsRequired,
	catalog.RuleCoverageAdequate:          ruleCoverageAdequate,
	catalog.RuleValueSupportsLoan:         ruleValueSupportsLoan,
}

// runDocumentRules evaluates declared rules in catalog order. Rule ids with no
// implementation pass.
func runDocumentRules(dt *catalog.DocumentType, fields map[string]interface{}, loan *models.LoanContext, c *catalog.Catalog, now time.Time) (issues []models.Issue, unknown []string) {
	for _, r := range dt.Rules {
		fn, ok := documentRules[r.ID]
		if !ok {
			unknown = append(unknown, r.ID)
			continue
		}
		failed, detail := fn(ruleEnv{rule: r, fields: fields, loan: loan, catalog: c, now: now})
		if !failed {
			continue
		}
		msg := r.Message
		if detail != "" {
			msg = fmt.Sprintf("%s (%s)", r.Message, detail)
		}
		issues = append(issues, models.Issue{
			RuleID:   r.ID,
			Severity: models.Severity(r.Severity),
			Message:  msg,
		})
	}
	return issues, unknown
}

func ruleDocumentNotExpired(env ruleEnv) (bool, string) {
	d, ok := parseDate(env.fields["expirationDate"])
	if !ok || !d.Before(startOfDay(env.now)) {
		return false, ""
	}
	return true, "expired " + d.Format("2006-01-02")
}

var nameFields = []string{"fullName", "name", "borrowerName", "employeeName", "accountHolderName", "taxpayerName"}

func ruleNameMatches(env ruleEnv) (bool, string) {
	for _, f := range nameFields {
		s, ok := toString(env.fields[f])
		if !ok {
			continue
		}
		if containsName(s, env.loan.Borrower.FirstName, env.loan.Borrower.LastName) {
			return false, ""
		}
		return true, fmt.Sprintf("found %q", s)
	}
	return false, ""
}

func ruleStatementNotTooOld(env ruleEnv) (bool, string) {
	maxAge := 60
	if v, ok := toFloat(env.rule.Params["maxAgeDays"]); ok && v > 0 {
		maxAge = int(v)
	}
	raw := env.fields["statementEndDate"]
	if isMissing(raw) {
		raw = env.fields["statementDate"]
	}
	d, ok := parseDate(raw)
	if !ok || !olderThan(d, env.now, maxAge) {
		return false, ""
	}
	return true, fmt.Sprintf("%d days old", daysSince(d, env.now))
}

func ruleLargeDepositsNeedSourcing(env ruleEnv) (bool, string) {
	if n := count(env.fields["largeDeposits"]); n > 0 {
		return true, fmt.Sprintf("%d deposits", n)
	}
	return false, ""
}

func ruleNSFFeesPresent(env ruleEnv) (bool, string) {
	if n := count(env.fields["nsfFees"]); n > 0 {
		return true, fmt.Sprintf("%d fees", n)
	}
	return false, ""
}

// ruleTwoYearsRequired needs the loan's full document set. Not yet
// implemented: always passes.
func ruleTwoYearsRequired(ruleEnv) (bool, string) {
	return false, ""
}

func ruleCoverageAdequate(env ruleEnv) (bool, string) {
	coverage, ok := toFloat(env.fields["dwellingCoverage"])
	amount := env.loan.MISMO.LoanAmountRequested
	if !ok || amount <= 0 || coverage >= amount {
		return false, ""
	}
	return true, fmt.Sprintf("coverage $%.2f, loan $%.2f", coverage, amount)
}

func ruleValueSupportsLoan(env ruleEnv) (bool, string) {
	value, ok := toFloat(env.fields["appraisedValue"])
	amount := env.loan.MISMO.LoanAmountRequested
	if !ok || value <= 0 || amount <= 0 {
		return false, ""
	}
	ltv := amount / value * 100
	limit := catalog.DefaultMaxLTV
	if env.catalog != nil {
		limit = env.catalog.MaxLTVFor(env.loan.MISMO.LoanProductType)
	}
	if ltv <= limit {
		return false, ""
	}
	return true, fmt.Sprintf("LTV %.2f%% exceeds %.2f%%", ltv, limit)
}
