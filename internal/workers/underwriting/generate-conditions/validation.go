// internal/workers/underwriting/generate-conditions/validation.go
package generateconditions

import "mortgage-underwriting/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["loanContext", "validationResult"],
  "properties": {
    "loanContext": {
      "type": "object",
      "required": ["loanId"],
      "properties": {"loanId": {"type": "string", "minLength": 1}}
    },
    "validationResult": {
      "type": "object",
      "required": ["isValid"],
      "properties": {
        "documentType": {"type": "string"},
        "isValid": {"type": "boolean"},
        "issues": {"type": ["array", "null"]},
        "warnings": {"type": ["array", "null"]}
      }
    },
    "documentType": {"type": "string"}
  }
}`)

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := inputSchema.Decode(variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}
