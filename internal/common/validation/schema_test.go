// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["loanId", "action"],
  "properties": {
    "loanId": {"type": "string", "minLength": 1},
    "action": {"type": "string", "enum": ["clear", "request-document"]},
    "loan": {
      "type": "object",
      "required": ["borrower"],
      "properties": {"borrower": {"type": "object"}}
    },
    "amount": {"type": "number", "minimum": 0}
  }
}`

func TestSchema_Valid(t *testing.T) {
	s := MustCompile("test", testSchema)
	res := s.Validate(map[string]interface{}{"loanId": "loan-001", "action": "clear"})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "", res.Error())
	assert.Equal(t, "test", s.Name())
}

func TestSchema_Errors(t *testing.T) {
	s := MustCompile("test", testSchema)

	tests := []struct {
		name      string
		input     map[string]interface{}
		wantField string
		wantCode  string
	}{
		{"missing required", map[string]interface{}{"action": "clear"}, "loanId", "REQUIRED_FIELD_MISSING"},
		{"bad enum", map[string]interface{}{"loanId": "l", "action": "reopen"}, "action", "INVALID_ENUM_VALUE"},
		{"wrong type", map[string]interface{}{"loanId": 42.0, "action": "clear"}, "loanId", "INVALID_TYPE"},
		{"empty string", map[string]interface{}{"loanId": "", "action": "clear"}, "loanId", "LENGTH_VIOLATION"},
		{"negative number", map[string]interface{}{"loanId": "l", "action": "clear", "amount": -1.0}, "amount", "RANGE_VIOLATION"},
		{"nested required", map[string]interface{}{"loanId": "l", "action": "clear", "loan": map[string]interface{}{}}, "loan.borrower", "REQUIRED_FIELD_MISSING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Validate(tt.input)
			require.False(t, res.Valid)
			require.True(t, res.HasErrors(tt.wantField), res.Error())
			assert.Equal(t, tt.wantCode, res.GetErrorsForField(tt.wantField)[0].Code)
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("broken", `{`) })
}

func TestGetErrorsForField_IncludesChildren(t *testing.T) {
	res := &ValidationResult{Errors: []ValidationError{
		{Field: "loan.borrower", Message: "a"},
		{Field: "loan.mismo", Message: "b"},
		{Field: "loanId", Message: "c"},
	}}
	assert.Len(t, res.GetErrorsForField("loan"), 2)
	assert.Equal(t, []string{"loan.borrower: a", "loan.mismo: b", "loanId: c"}, res.GetErrorMessages())
}

func TestSchema_Decode(t *testing.T) {
	s := MustCompile("test", testSchema)

	var out struct {
		LoanID string `json:"loanId"`
		Action string `json:"action"`
	}
	require.NoError(t, s.Decode(`{"loanId":"loan-001","action":"clear"}`, &out))
	assert.Equal(t, "loan-001", out.LoanID)

	err := s.Decode(`{"loanId":"loan-001"}`, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INPUT_VALIDATION_FAILED")

	err = s.Decode(`{not json`, &out)
	assert.ErrorContains(t, err, "INPUT_VALIDATION_FAILED")
}
