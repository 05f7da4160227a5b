package autoreply

import (
	"context"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/enum"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/models"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/internal/utils"
)

const (
	// historyLimit caps how many thread entries feed the prompt, most
	// recent kept.
	historyLimit = 10
	// bodyCharLimit truncates each transcript body so one long message
	// cannot crowd out the rest of the conversation.
	bodyCharLimit = 500
)

type Service interface {
	// Reply generates and sends an assistant reply to an inbound entry.
	// Returns the outbound log entry on success.
	Reply(ctx context.Context, credential *models.EmailCredential, entry *models.EmailMessageLog) (*models.EmailMessageLog, error)
}

type autoReplyService struct {
	log           logger.Logger
	emailLogRepo  interfaces.EmailLogRepository
	assistantRepo interfaces.AssistantRepository
	completion    interfaces.CompletionService
	sender        interfaces.EmailSender
}

func NewAutoReplyService(
	log logger.Logger,
	emailLogRepo interfaces.EmailLogRepository,
	assistantRepo interfaces.AssistantRepository,
	completion interfaces.CompletionService,
	sender interfaces.EmailSender,
) Service {
	return &autoReplyService{
		log:           log,
		emailLogRepo:  emailLogRepo,
		assistantRepo: assistantRepo,
		completion:    completion,
		sender:        sender,
	}
}

func (s *autoReplyService) Reply(ctx context.Context, credential *models.EmailCredential, entry *models.EmailMessageLog) (*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "autoReplyService.Reply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("entry.id", entry.ID)
	span.SetTag("assistant.id", entry.AssistantID)
	span.SetTag("thread.id", entry.ThreadID)

	if entry.Direction != enum.EmailDirectionInbound {
		err := fmt.Errorf("replies are generated for inbound entries only")
		tracing.TraceErr(span, err)
		return nil, err
	}
	if entry.AssistantID == "" {
		err := errors.Wrap(engineErrors.ErrAssistantNotFound, "entry has no assistant")
		tracing.TraceErr(span, err)
		return nil, err
	}

	assistant, err := s.assistantRepo.GetByID(ctx, entry.AssistantID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if assistant == nil {
		err = errors.Wrapf(engineErrors.ErrAssistantNotFound, "id %s", entry.AssistantID)
		tracing.TraceErr(span, err)
		return nil, err
	}

	history, err := s.emailLogRepo.ListByThread(ctx, entry.ThreadID, historyLimit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if len(history) == 0 {
		err = errors.Wrapf(engineErrors.ErrThreadHistoryEmpty, "thread %s", entry.ThreadID)
		tracing.TraceErr(span, err)
		return nil, err
	}

	prompt := BuildPrompt(assistant, history)
	span.SetTag("prompt.length", len(prompt))

	text, err := s.completion.GenerateText(ctx, dto.CompletionRequest{
		Prompt: prompt,
		UserID: entry.UserID,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	references := append([]string{}, entry.References...)
	if entry.MessageID != "" && !utils.IsStringInSlice(entry.MessageID, references) {
		references = append(references, entry.MessageID)
	}

	reply := &dto.OutboundEmail{
		From:       credential.EmailAddress,
		To:         entry.FromAddress,
		Subject:    utils.EnsureReplySubject(entry.Subject),
		BodyText:   text,
		InReplyTo:  entry.MessageID,
		References: references,
	}

	sent, err := s.sender.Send(ctx, credential, reply, dto.SendContext{
		UserID:      entry.UserID,
		AssistantID: entry.AssistantID,
		CampaignID:  entry.CampaignID,
		ThreadID:    entry.ThreadID,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("auto-reply %s sent for thread %s", sent.ID, entry.ThreadID)
	return sent, nil
}

// BuildPrompt renders the assistant persona followed by the thread
// transcript, oldest first, each body capped at the transcript limit.
func BuildPrompt(assistant *models.Assistant, history []*models.EmailMessageLog) string {
	var sb strings.Builder

	sb.WriteString(assistant.Prompt)
	sb.WriteString("\n\nConversation so far:\n")

	for _, entry := range history {
		label := "Them"
		if entry.Direction == enum.EmailDirectionOutbound {
			label = "You"
		}

		body := strings.TrimSpace(entry.BodyText)
		if runes := []rune(body); len(runes) > bodyCharLimit {
			body = string(runes[:bodyCharLimit]) + "..."
		}

		sb.WriteString(fmt.Sprintf("%s (%s): %s\n", label, entry.FromAddress, body))
	}

	sb.WriteString("\nWrite the next reply. Output only the email body text.")
	return sb.String()
}
