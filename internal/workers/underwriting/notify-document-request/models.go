// internal/workers/underwriting/notify-document-request/models.go
package notifydocumentrequest

import "mortgage-underwriting/internal/models"

type Input struct {
	LoanContext  models.LoanContext `json:"loanContext"`
	ConditionID  string             `json:"conditionId"`
	Priority     string             `json:"priority,omitempty"`
	SentChannels []string           `json:"sentChannels,omitempty"` // set by a failed earlier attempt
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "skipped", "disabled"
	Channels       []string `json:"channels"`
	MessageIDs     []string `json:"messageIds,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const PriorityHigh = "high"

// SentChannelsVariable is the job variable listing channels that already
// went out before a retryable failure.
const SentChannelsVariable = "sentChannels"
