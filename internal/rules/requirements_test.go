// internal/rules/requirements_test.go
package rules

import (
	"testing"

	"mortgage-underwriting/pkg/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTree() map[string]interface{} {
	return map[string]interface{}{
		"employment": map[string]interface{}{
			"selfEmployed": false,
			"employerName": "Acme Corporation",
		},
		"mismo": map[string]interface{}{
			"loanAmountRequested": 300000.0,
			"loanPurpose":         "purchase",
			"loanProductType":     "fha",
		},
		"tags":     []interface{}{"first-time-buyer", "veteran"},
		"nullable": nil,
	}
}

// ==========================
// Path Lookup Tests
// ==========================

func TestLookup(t *testing.T) {
	tree := createTestTree()

	assert.Equal(t, false, Lookup(tree, "employment.selfEmployed"))
	assert.Equal(t, 300000.0, Lookup(tree, "mismo.loanAmountRequested"))
	assert.Equal(t, "veteran", Lookup(tree, "tags.1"))

	for _, path := range []string{"", "missing", "employment.missing", "employment.selfEmployed.deeper", "tags.7", "tags.x", "nullable"} {
		assert.True(t, IsAbsent(Lookup(tree, path)), "path %q", path)
	}
	assert.True(t, IsAbsent(Lookup(nil, "a")))
}

// ==========================
// Operator Tests
// ==========================

func TestEvaluateCondition(t *testing.T) {
	tree := createTestTree()

	tests := []struct {
		name string
		cond catalog.RequirementCondition
		want bool
	}{
		{"equals bool", catalog.RequirementCondition{Path: "employment.selfEmployed", Operator: catalog.OpEquals, Value: false}, true},
		{"equals bool mismatch", catalog.RequirementCondition{Path: "employment.selfEmployed", Operator: catalog.OpEquals, Value: true}, false},
		{"equals string", catalog.RequirementCondition{Path: "mismo.loanPurpose", Operator: catalog.OpEquals, Value: "purchase"}, true},
		{"equals number", catalog.RequirementCondition{Path: "mismo.loanAmountRequested", Operator: catalog.OpEquals, Value: 300000}, true},
		{"equals string is not numeric", catalog.RequirementCondition{Path: "mismo.loanPurpose", Operator: catalog.OpEquals, Value: 1}, false},
		{"greaterThan", catalog.RequirementCondition{Path: "mismo.loanAmountRequested", Operator: catalog.OpGreaterThan, Value: 0}, true},
		{"greaterThan equal", catalog.RequirementCondition{Path: "mismo.loanAmountRequested", Operator: catalog.OpGreaterThan, Value: 300000}, false},
		{"lessThan", catalog.RequirementCondition{Path: "mismo.loanAmountRequested", Operator: catalog.OpLessThan, Value: 726200}, true},
		{"lessThan non numeric", catalog.RequirementCondition{Path: "mismo.loanPurpose", Operator: catalog.OpLessThan, Value: 5}, false},
		{"in", catalog.RequirementCondition{Path: "mismo.loanProductType", Operator: catalog.OpIn, Value: []interface{}{"fha", "va"}}, true},
		{"in miss", catalog.RequirementCondition{Path: "mismo.loanProductType", Operator: catalog.OpIn, Value: []interface{}{"usda"}}, false},
		{"in scalar value", catalog.RequirementCondition{Path: "mismo.loanProductType", Operator: catalog.OpIn, Value: "fha"}, false},
		{"contains substring", catalog.RequirementCondition{Path: "employment.employerName", Operator: catalog.OpContains, Value: "Acme"}, true},
		{"contains list element", catalog.RequirementCondition{Path: "tags", Operator: catalog.OpContains, Value: "veteran"}, true},
		{"contains list miss", catalog.RequirementCondition{Path: "tags", Operator: catalog.OpContains, Value: "investor"}, false},
		{"unknown operator", catalog.RequirementCondition{Path: "mismo.loanPurpose", Operator: "startsWith", Value: "p"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCondition(tt.cond, tree))
		})
	}
}

func TestEvaluateCondition_AbsentIsAlwaysFalse(t *testing.T) {
	tree := createTestTree()
	ops := []catalog.Operator{catalog.OpEquals, catalog.OpGreaterThan, catalog.OpLessThan, catalog.OpIn, catalog.OpContains}
	values := []interface{}{nil, 0, "", false, []interface{}{nil}}

	for _, op := range ops {
		for _, v := range values {
			cond := catalog.RequirementCondition{Path: "transaction.giftFunds", Operator: op, Value: v}
			assert.False(t, EvaluateCondition(cond, tree), "%s %v", op, v)
		}
	}
}

// ==========================
// Resolver Tests
// ==========================

func TestIsRequired_Flags(t *testing.T) {
	tree := createTestTree()

	assert.True(t, IsRequired(catalog.DocumentType{ID: "a", Required: true}, tree))
	assert.False(t, IsRequired(catalog.DocumentType{ID: "b", Required: false}, tree))

	conditional := catalog.DocumentType{
		ID:       "c",
		Required: false,
		Conditions: []catalog.RequirementCondition{
			{Path: "mismo.loanPurpose", Operator: catalog.OpEquals, Value: "purchase"},
			{Path: "mismo.loanAmountRequested", Operator: catalog.OpGreaterThan, Value: 100000},
		},
	}
	assert.True(t, IsRequired(conditional, tree))

	conditional.Conditions = append(conditional.Conditions, catalog.RequirementCondition{
		Path: "employment.selfEmployed", Operator: catalog.OpEquals, Value: true,
	})
	assert.False(t, IsRequired(conditional, tree))
}

func TestRequiredDocuments_DefaultCatalog(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	ids := func(dts []catalog.DocumentType) []string {
		out := []string{}
		for _, dt := range dts {
			out = append(out, dt.ID)
		}
		return out
	}

	t.Run("salaried purchase", func(t *testing.T) {
		got, err := RequiredDocuments(createTestLoan(), c)
		require.NoError(t, err)
		assert.Equal(t, []string{
			catalog.DocPaystub, catalog.DocW2, catalog.DocBankStatement, "drivers_license",
			"homeowners_insurance", "appraisal", "purchase_agreement",
		}, ids(got))
	})

	t.Run("self-employed refinance with gift", func(t *testing.T) {
		loan := createTestLoan()
		loan.Employment.SelfEmployed = true
		loan.MISMO.LoanPurpose = "refinance"
		loan.Transaction.GiftFunds = 10000

		got, err := RequiredDocuments(loan, c)
		require.NoError(t, err)
		assert.Equal(t, []string{
			catalog.DocBankStatement, "drivers_license", "homeowners_insurance", "appraisal",
			"tax_return", "profit_loss_statement", "gift_letter",
		}, ids(got))
	})

	t.Run("nil loan", func(t *testing.T) {
		got, err := RequiredDocuments(nil, c)
		require.NoError(t, err)
		assert.Contains(t, ids(got), "drivers_license")
		assert.NotContains(t, ids(got), "appraisal")
	})
}

func TestRequiredDocuments_EmptyCatalog(t *testing.T) {
	got, err := RequiredDocuments(createTestLoan(), &catalog.Catalog{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
