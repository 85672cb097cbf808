// internal/rules/requirements.go
package rules

import (
	"fmt"
	"strings"

	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/pkg/catalog"
)

// RequiredDocuments returns the document types a loan must supply, in catalog
// order. A type is required when it is flagged required and has no
// conditions, or when every one of its conditions holds for the loan.
func RequiredDocuments(loan *models.LoanContext, c *catalog.Catalog) ([]catalog.DocumentType, error) {
	if loan == nil {
		loan = &models.LoanContext{}
	}
	tree, err := loan.Document()
	if err != nil {
		return nil, fmt.Errorf("resolve loan data: %w", err)
	}

	out := []catalog.DocumentType{}
	for _, dt := range c.DocumentTypes {
		if IsRequired(dt, tree) {
			out = append(out, dt)
		}
	}
	return out, nil
}

// IsRequired evaluates one document type against a generic loan tree.
func IsRequired(dt catalog.DocumentType, tree map[string]interface{}) bool {
	if len(dt.Conditions) == 0 {
		return dt.Required
	}
	for _, cond := range dt.Conditions {
		if !EvaluateCondition(cond, tree) {
			return false
		}
	}
	return true
}

// EvaluateCondition applies a single requirement predicate.
func EvaluateCondition(cond catalog.RequirementCondition, tree map[string]interface{}) bool {
	actual := Lookup(tree, cond.Path)
	if IsAbsent(actual) {
		return false
	}

	switch cond.Operator {
	case catalog.OpEquals:
		return valuesEqual(actual, cond.Value)
	case catalog.OpGreaterThan:
		a, okA := toFloat(actual)
		b, okB := toFloat(cond.Value)
		return okA && okB && a > b
	case catalog.OpLessThan:
		a, okA := toFloat(actual)
		b, okB := toFloat(cond.Value)
		return okA && okB && a < b
	case catalog.OpIn:
		list, ok := cond.Value.([]interface{})
		if !ok {
			return false
		}
		for _, candidate := range list {
			if valuesEqual(actual, candidate) {
				return true
			}
		}
		return false
	case catalog.OpContains:
		switch a := actual.(type) {
		case string:
			needle, ok := cond.Value.(string)
			return ok && strings.Contains(a, needle)
		case []interface{}:
			for _, item := range a {
				if valuesEqual(item, cond.Value) {
					return true
				}
			}
		}
		return false
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if b == nil {
		return false
	}
	if _, isStr := a.(string); !isStr {
		if fa, ok := toFloat(a); ok {
			fb, okB := toFloat(b)
			return okB && fa == fb
		}
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}
