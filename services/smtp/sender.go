package smtp

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/enum"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/models"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/internal/utils"
	"github.com/inboxpilot/mailsync/services/imap"
)

type emailSender struct {
	cfg          *config.SyncConfig
	log          logger.Logger
	transport    Transport
	emailLogRepo interfaces.EmailLogRepository
	mailbox      interfaces.MailboxAdapter
}

// NewEmailSender builds the outbound sender. The transport is injectable so
// assembly and logging can be tested without a live server.
func NewEmailSender(
	cfg *config.SyncConfig,
	log logger.Logger,
	transport Transport,
	emailLogRepo interfaces.EmailLogRepository,
	mailbox interfaces.MailboxAdapter,
) interfaces.EmailSender {
	return &emailSender{
		cfg:          cfg,
		log:          log,
		transport:    transport,
		emailLogRepo: emailLogRepo,
		mailbox:      mailbox,
	}
}

// Send delivers the message and records the outcome. A log entry is written
// on both paths: status sent on success, status failed with the transport
// error on failure. The sent-folder archive runs detached after the entry is
// logged, independent of the delivery outcome, and its result never changes
// the returned values.
func (s *emailSender) Send(ctx context.Context, credential *models.EmailCredential, email *dto.OutboundEmail, sendCtx dto.SendContext) (*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailSender.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", credential.ID)
	span.SetTag("to", email.To)

	err := s.validate(credential, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	validation := mailvalidate.ValidateEmailSyntax(email.From)
	messageID := utils.NormalizeMessageID(utils.GenerateMessageID(validation.Domain, email.To))
	span.SetTag("message.id", messageID)

	raw := s.buildMessage(email, messageID)

	deliveryErr := s.transport.Deliver(ctx, credential, email.From, []string{email.To}, raw)

	entry := &models.EmailMessageLog{
		UserID:      sendCtx.UserID,
		AssistantID: sendCtx.AssistantID,
		CampaignID:  sendCtx.CampaignID,
		FromAddress: email.From,
		ToAddress:   email.To,
		Subject:     email.Subject,
		BodyText:    email.BodyText,
		Direction:   enum.EmailDirectionOutbound,
		MessageID:   messageID,
		InReplyTo:   email.InReplyTo,
		References:  email.References,
		ThreadID:    sendCtx.ThreadID,
	}

	if deliveryErr != nil {
		entry.Status = enum.EmailStatusFailed
		entry.StatusDetail = deliveryErr.Error()
		if err := s.emailLogRepo.Create(ctx, entry); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("failed to record failed delivery of %s: %v", messageID, err)
		}
		tracing.TraceErr(span, deliveryErr)
		s.archiveDetached(credential, raw)
		return entry, errors.Wrap(engineErrors.ErrTransportFailed, deliveryErr.Error())
	}

	entry.Status = enum.EmailStatusSent
	if err := s.emailLogRepo.Create(ctx, entry); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.archiveDetached(credential, raw)

	return entry, nil
}

func (s *emailSender) validate(credential *models.EmailCredential, email *dto.OutboundEmail) error {
	if !credential.HasSmtpConfig() {
		return engineErrors.ErrMissingCredentials
	}

	if email.From == "" {
		return fmt.Errorf("from address is required")
	}
	validation := mailvalidate.ValidateEmailSyntax(email.From)
	if !validation.IsValid {
		return fmt.Errorf("from address is not valid")
	}

	if email.To == "" {
		return fmt.Errorf("at least one recipient is required")
	}

	if email.Subject == "" {
		return fmt.Errorf("email must have a subject")
	}

	if email.BodyText == "" && email.BodyHTML == "" {
		return fmt.Errorf("email must have either text or HTML content")
	}

	return nil
}

// buildMessage assembles the raw RFC 5322 message: plain text only when no
// HTML body is present, multipart/alternative otherwise.
func (s *emailSender) buildMessage(email *dto.OutboundEmail, messageID string) []byte {
	buffer := bytes.NewBuffer(nil)

	writeHeader(buffer, "From", email.From)
	writeHeader(buffer, "To", email.To)
	writeHeader(buffer, "Subject", email.Subject)
	writeHeader(buffer, "Date", time.Now().UTC().Format(time.RFC1123Z))
	writeHeader(buffer, "Message-ID", "<"+messageID+">")
	if email.InReplyTo != "" {
		writeHeader(buffer, "In-Reply-To", "<"+email.InReplyTo+">")
	}
	if len(email.References) > 0 {
		bracketed := make([]string, 0, len(email.References))
		for _, ref := range email.References {
			bracketed = append(bracketed, "<"+ref+">")
		}
		writeHeader(buffer, "References", strings.Join(bracketed, " "))
	}
	writeHeader(buffer, "MIME-Version", "1.0")

	if email.BodyHTML == "" {
		writeHeader(buffer, "Content-Type", "text/plain; charset=UTF-8")
		buffer.WriteString("\r\n")
		buffer.WriteString(email.BodyText)
		return buffer.Bytes()
	}

	writer := multipart.NewWriter(buffer)
	writeHeader(buffer, "Content-Type", "multipart/alternative; boundary="+writer.Boundary())
	buffer.WriteString("\r\n")

	if email.BodyText != "" {
		textPart, _ := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/plain; charset=UTF-8"},
		})
		textPart.Write([]byte(email.BodyText))
	}

	htmlPart, _ := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	htmlPart.Write([]byte(email.BodyHTML))

	writer.Close()
	return buffer.Bytes()
}

func writeHeader(buffer *bytes.Buffer, key, value string) {
	buffer.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
}

// archiveDetached copies the assembled message into the account's sent
// folder, whatever the delivery outcome was. Runs on its own goroutine:
// archive failures are logged and dropped, they never surface to the Send
// caller.
func (s *emailSender) archiveDetached(credential *models.EmailCredential, raw []byte) {
	if !credential.HasImapConfig() {
		return
	}

	legacyFallback := s.cfg.LegacySentFallback
	utils.RunDetached("archive-sent-copy", s.log, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		conn, err := s.mailbox.Connect(ctx, credential)
		if err != nil {
			return errors.Wrap(engineErrors.ErrArchiveFailed, err.Error())
		}
		defer conn.Close()

		tree, err := conn.FolderTree(ctx)
		if err != nil {
			return errors.Wrap(engineErrors.ErrArchiveFailed, err.Error())
		}

		folder, err := imap.FindSentFolder(tree, legacyFallback)
		if err != nil {
			return errors.Wrap(engineErrors.ErrArchiveFailed, err.Error())
		}

		if err := conn.Append(ctx, folder, raw); err != nil {
			return errors.Wrap(engineErrors.ErrArchiveFailed, err.Error())
		}
		return nil
	})
}
