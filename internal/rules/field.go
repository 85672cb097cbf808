// internal/rules/field.go
package rules

import (
	"fmt"
	"strings"
	"time"

	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/pkg/catalog"
)

// RuleRequiredField is the issue rule id for a missing required field.
const RuleRequiredField = "requiredField"

// ValidateField checks one extracted value against its field rule. It has no
// side effects; the same inputs always give the same result.
func ValidateField(rule catalog.FieldRule, value interface{}, loan *models.LoanContext, now time.Time) models.FieldValidation {
	if isMissing(value) {
		if rule.Required {
			return invalid("Required field %s is missing", rule.Name)
		}
		return models.FieldValidation{IsValid: true}
	}
	if rule.Validator == "" {
		return models.FieldValidation{IsValid: true}
	}
	if loan == nil {
		loan = &models.LoanContext{}
	}

	switch rule.Validator {
	case catalog.ValidatorBorrowerName:
		s, _ := toString(value)
		if !containsName(s, loan.Borrower.FirstName, loan.Borrower.LastName) {
			return invalid("%s %q does not match borrower %s %s", rule.Name, s, loan.Borrower.FirstName, loan.Borrower.LastName)
		}

	case catalog.ValidatorBorrowerDOB:
		s, _ := toString(value)
		if s != loan.Borrower.DateOfBirth {
			return invalid("%s does not match borrower date of birth", rule.Name)
		}

	case catalog.ValidatorNotExpired:
		if d, ok := parseDate(value); ok && d.Before(startOfDay(now)) {
			return invalid("%s expired on %s", rule.Name, d.Format("2006-01-02"))
		}

	case catalog.ValidatorWithin30Days:
		if d, ok := parseDate(value); ok && olderThan(d, now, 30) {
			return invalid("%s is more than 30 days old", rule.Name)
		}

	case catalog.ValidatorWithin60Days:
		if d, ok := parseDate(value); ok && olderThan(d, now, 60) {
			return invalid("%s is more than 60 days old", rule.Name)
		}

	case catalog.ValidatorSubjectProperty:
		s, _ := toString(value)
		if !addressesMatch(s, loan.Property.Address) {
			return invalid("%s does not match the subject property", rule.Name)
		}

	case catalog.ValidatorLoanApplication:
		// Not yet implemented: always passes.
	}

	return models.FieldValidation{IsValid: true}
}

func invalid(format string, args ...interface{}) models.FieldValidation {
	return models.FieldValidation{IsValid: false, Message: fmt.Sprintf(format, args...)}
}

var addressNoise = strings.NewReplacer(".", "", ",", "")

// addressesMatch is a fuzzy comparison: after stripping punctuation and case,
// either address must contain the first token of the other, compared with
// whitespace removed.
func addressesMatch(a, b string) bool {
	na := addressNoise.Replace(strings.ToLower(a))
	nb := addressNoise.Replace(strings.ToLower(b))
	fa, fb := firstToken(na), firstToken(nb)
	ca, cb := strings.Join(strings.Fields(na), ""), strings.Join(strings.Fields(nb), "")
	if fa == "" || fb == "" {
		return false
	}
	return strings.Contains(ca, fb) || strings.Contains(cb, fa)
}

func firstToken(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
