// internal/workers/underwriting/notify-document-request/handler.go
package notifydocumentrequest

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"mortgage-underwriting/internal/common/camunda"
	"mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/conditions"
	"mortgage-underwriting/internal/models"
	"mortgage-underwriting/pkg/catalog"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-document-request"
)

type ConditionGetter interface {
	Get(ctx context.Context, id string) (*models.Condition, error)
}

type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config     *Config
	catalog    *catalog.Catalog
	conditions ConditionGetter
	email      EmailSender
	sms        SMSSender
	logger     logger.Logger
	runner     *camunda.JobRunner
	now        func() time.Time
}

func NewHandler(config *Config, c *catalog.Catalog, conds ConditionGetter, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		catalog:    c,
		conditions: conds,
		email:      email,
		sms:        sms,
		logger:     log,
		runner:     camunda.NewJobRunner(TaskType, config.Timeout, log),
		now:        time.Now,
	}
}

func (h *Handler) WithTracer(t camunda.JobTracer) *Handler {
	h.runner.WithTracer(t)
	return h
}

func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	input, err := parseInput(job.Variables)
	if err != nil {
		h.runner.Reject(client, job, err)
		return
	}
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		return h.execute(ctx, input)
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cond, err := h.conditions.Get(ctx, input.ConditionID)
	if err != nil {
		if stderrors.Is(err, conditions.ErrConditionNotFound) {
			return nil, errors.NewConditionNotFoundError(input.ConditionID)
		}
		return nil, errors.NewQueryExecutionFailedError("get condition", err)
	}

	out := &Output{
		NotificationID: uuid.New().String(),
		Channels:       []string{},
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	if cond.Status != models.StatusPendingDocument {
		h.logger.Warn("condition is not awaiting a document", map[string]interface{}{
			"conditionId": cond.ID,
			"status":      cond.Status,
		})
		out.Status = StatusSkipped
		return out, nil
	}

	borrower := input.LoanContext.Borrower
	subject, body := h.compose(borrower, cond)

	// Channels delivered by an earlier attempt of this job are not sent again.
	sent := map[string]bool{}
	for _, ch := range input.SentChannels {
		if !sent[ch] {
			sent[ch] = true
			out.Channels = append(out.Channels, ch)
		}
	}
	failed := func(channel string, err error) error {
		return errors.NewNotificationSendFailedError(channel, err).
			WithMetadata(SentChannelsVariable, append([]string{}, out.Channels...))
	}

	if h.config.EmailEnabled && h.email != nil && borrower.Email != "" && !sent[ChannelEmail] {
		id, err := h.email.SendText(ctx, borrower.Email, subject, body)
		if err != nil {
			return nil, failed(ChannelEmail, err)
		}
		out.Channels = append(out.Channels, ChannelEmail)
		out.MessageIDs = append(out.MessageIDs, id)
	}

	// SMS goes out only for urgent requests.
	urgent := input.Priority == PriorityHigh || cond.Type == models.ConditionCritical
	if h.config.SMSEnabled && h.sms != nil && borrower.Phone != "" && urgent && !sent[ChannelSMS] {
		id, err := h.sms.SendSMS(ctx, borrower.Phone, subject+". "+cond.RequestNotes)
		if err != nil {
			return nil, failed(ChannelSMS, err)
		}
		out.Channels = append(out.Channels, ChannelSMS)
		out.MessageIDs = append(out.MessageIDs, id)
	}

	out.Status = StatusDisabled
	if len(out.Channels) > 0 {
		out.Status = StatusSent
	}

	h.logger.Info("document request notification processed", map[string]interface{}{
		"loanId":         input.LoanContext.LoanID,
		"conditionId":    cond.ID,
		"notificationId": out.NotificationID,
		"status":         out.Status,
		"channels":       out.Channels,
	})
	return out, nil
}

func (h *Handler) compose(b models.Borrower, cond *models.Condition) (string, string) {
	docName := cond.RequestedDocumentType
	if dt, ok := h.catalog.DocumentType(docName); ok {
		docName = dt.Name
	}
	subject := fmt.Sprintf("Document needed for your loan: %s", docName)

	var sb strings.Builder
	name := strings.TrimSpace(b.FirstName)
	if name == "" {
		name = "Borrower"
	}
	fmt.Fprintf(&sb, "Hello %s,\n\n", name)
	fmt.Fprintf(&sb, "To continue underwriting your loan we need a %s.\n", docName)
	if cond.Title != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", cond.Title)
	}
	if cond.RequestNotes != "" {
		fmt.Fprintf(&sb, "Notes from your underwriter: %s\n", cond.RequestNotes)
	}
	sb.WriteString("\nPlease upload it through your loan portal.\n")
	return subject, sb.String()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
