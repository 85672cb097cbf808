// internal/workers/underwriting/notify-document-request/validation.go
package notifydocumentrequest

import "mortgage-underwriting/internal/common/validation"

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["loanContext", "conditionId"],
  "properties": {
    "loanContext": {
      "type": "object",
      "required": ["loanId", "borrower"],
      "properties": {
        "loanId": {"type": "string", "minLength": 1},
        "borrower": {
          "type": "object",
          "properties": {
            "email": {"type": "string", "maxLength": 254},
            "phone": {"type": "string", "maxLength": 20}
          }
        }
      }
    },
    "conditionId": {"type": "string", "minLength": 1},
    "priority": {"type": "string", "enum": ["low", "normal", "high"]},
    "sentChannels": {
      "type": "array",
      "items": {"type": "string", "enum": ["email", "sms"]}
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
