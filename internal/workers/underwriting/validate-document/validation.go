// internal/workers/underwriting/validate-document/validation.go
package validatedocument

import "mortgage-underwriting/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["loanContext", "document"],
  "properties": {
    "loanContext": {
      "type": "object",
      "required": ["loanId"],
      "properties": {"loanId": {"type": "string", "minLength": 1}}
    },
    "document": {
      "type": "object",
      "properties": {
        "documentType": {"type": "string"},
        "fields": {"type": ["object", "null"]}
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
