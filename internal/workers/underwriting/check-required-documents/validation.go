// internal/workers/underwriting/check-required-documents/validation.go
package checkrequireddocuments

import "mortgage-underwriting/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["loanContext"],
  "properties": {
    "loanContext": {
      "type": "object",
      "required": ["loanId"],
      "properties": {
        "loanId": {"type": "string", "minLength": 1},
        "mismo": {"type": "object"},
        "employment": {"type": "object"}
      }
    }
  }
}`)

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := inputSchema.Decode(variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}
