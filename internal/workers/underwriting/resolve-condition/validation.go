// internal/workers/underwriting/resolve-condition/validation.go
package resolvecondition

import "mortgage-underwriting/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["conditionId", "action"],
  "properties": {
    "conditionId": {"type": "string", "minLength": 1},
    "action": {"type": "string", "enum": ["clear", "request-document"]},
    "notes": {"type": "string", "maxLength": 2000},
    "requestedDocumentType": {"type": "string"}
  }
}`)

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := inputSchema.Decode(variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}
