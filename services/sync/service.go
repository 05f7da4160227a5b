package sync

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/enum"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/models"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/internal/utils"
	"github.com/inboxpilot/mailsync/services/autoreply"
	"github.com/inboxpilot/mailsync/services/imap"
	"github.com/inboxpilot/mailsync/services/mailparse"
	"github.com/inboxpilot/mailsync/services/threads"
)

const inboxFolder = "INBOX"

type syncService struct {
	cfg            *config.SyncConfig
	log            logger.Logger
	credentialRepo interfaces.CredentialRepository
	emailLogRepo   interfaces.EmailLogRepository
	adapter        interfaces.MailboxAdapter
	parser         mailparse.Parser
	resolver       threads.Resolver
	autoReply      autoreply.Service
	publisher      interfaces.EventPublisher

	inProgress atomic.Bool
}

func NewSyncService(
	cfg *config.SyncConfig,
	log logger.Logger,
	credentialRepo interfaces.CredentialRepository,
	emailLogRepo interfaces.EmailLogRepository,
	adapter interfaces.MailboxAdapter,
	parser mailparse.Parser,
	resolver threads.Resolver,
	autoReply autoreply.Service,
	publisher interfaces.EventPublisher,
) interfaces.SyncService {
	return &syncService{
		cfg:            cfg,
		log:            log,
		credentialRepo: credentialRepo,
		emailLogRepo:   emailLogRepo,
		adapter:        adapter,
		parser:         parser,
		resolver:       resolver,
		autoReply:      autoReply,
		publisher:      publisher,
	}
}

// RunCycle polls every active credential once. Overlapping invocations are
// collapsed: when a cycle is still running the call returns immediately. One
// credential failing never stops the others.
func (s *syncService) RunCycle(ctx context.Context) {
	if !s.inProgress.CompareAndSwap(false, true) {
		s.log.Debugf("sync cycle already in progress, skipping")
		return
	}
	defer s.inProgress.Store(false)

	span, ctx := opentracing.StartSpanFromContext(ctx, "syncService.RunCycle")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	credentials, err := s.credentialRepo.GetActiveWithSmtp(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to load credentials: %v", err)
		return
	}
	span.SetTag("credentials.count", len(credentials))

	for _, credential := range credentials {
		if !credential.HasImapConfig() {
			continue
		}
		if err := s.syncCredential(ctx, credential); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("sync failed for credential %s: %v", credential.ID, err)
		}
	}
}

func (s *syncService) syncCredential(ctx context.Context, credential *models.EmailCredential) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncService.syncCredential")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", credential.ID)

	conn, err := s.adapter.Connect(ctx, credential)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer conn.Close()

	if err := s.inboxPass(ctx, credential, conn); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("inbox pass failed for %s: %v", credential.ID, err)
	}

	if err := s.sentPass(ctx, credential, conn); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("sent pass failed for %s: %v", credential.ID, err)
	}

	return nil
}

// inboxPass ingests unseen inbound mail and triggers auto-replies for
// entries that landed on an assistant-owned thread.
func (s *syncService) inboxPass(ctx context.Context, credential *models.EmailCredential, conn interfaces.MailConnection) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncService.inboxPass")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", credential.ID)

	messages, err := conn.FetchUnseen(ctx, inboxFolder)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("messages.count", len(messages))

	for _, raw := range messages {
		entry, err := s.ingest(ctx, credential, raw, enum.EmailDirectionInbound)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("failed to ingest inbound message uid %d: %v", raw.UID, err)
			continue
		}
		if entry == nil {
			continue
		}

		if entry.AssistantID != "" {
			reply, err := s.autoReply.Reply(ctx, credential, entry)
			if err != nil {
				tracing.TraceErr(span, err)
				s.log.Warnf("auto-reply failed for entry %s: %v", entry.ID, err)
				continue
			}
			s.publisher.PublishReplySent(ctx, reply.ID, reply.UserID)
		}
	}

	return nil
}

// sentPass mirrors externally sent mail from the sent folder over a trailing
// window, read-only. An unresolvable sent folder skips the pass for this
// account rather than failing the cycle.
func (s *syncService) sentPass(ctx context.Context, credential *models.EmailCredential, conn interfaces.MailConnection) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncService.sentPass")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", credential.ID)

	tree, err := conn.FolderTree(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	folder, err := imap.FindSentFolder(tree, s.cfg.LegacySentFallback)
	if err != nil {
		if errors.Is(err, engineErrors.ErrSentFolderNotFound) {
			s.log.Warnf("no sent folder for credential %s, skipping sent pass", credential.ID)
			return nil
		}
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("folder", folder)

	since := utils.Now().AddDate(0, 0, -s.cfg.SentWindowDays)
	messages, err := conn.FetchSince(ctx, folder, since)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("messages.count", len(messages))

	for _, raw := range messages {
		if _, err := s.ingest(ctx, credential, raw, enum.EmailDirectionOutbound); err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("failed to ingest sent message uid %d: %v", raw.UID, err)
		}
	}

	return nil
}

// ingest normalizes one raw message and appends it to the log. Returns nil
// without error when the message is a duplicate or carries no message id.
func (s *syncService) ingest(ctx context.Context, credential *models.EmailCredential, raw *interfaces.RawMessage, direction enum.EmailDirection) (*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "syncService.ingest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", credential.ID)
	span.SetTag("direction", direction.String())

	parsed, err := s.parser.Parse(ctx, raw.Raw)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	messageID := parsed.Headers.MessageID
	if messageID == "" {
		// Without a message id there is no dedupe key; ingesting would
		// duplicate the entry on every sent-pass rescan.
		s.log.Warnf("message uid %d has no message id, skipping", raw.UID)
		return nil, nil
	}
	span.SetTag("message.id", messageID)

	existing, err := s.emailLogRepo.GetByMessageID(ctx, messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if existing != nil {
		span.SetTag("duplicate", true)
		return nil, nil
	}

	decision, err := s.resolver.Resolve(ctx, credential.UserID, parsed)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	status := enum.EmailStatusReceived
	if direction == enum.EmailDirectionOutbound {
		status = enum.EmailStatusSent
	}

	entry := &models.EmailMessageLog{
		UserID:         credential.UserID,
		AssistantID:    decision.AssistantID,
		CampaignID:     decision.CampaignID,
		FromAddress:    parsed.From,
		ToAddress:      strings.Join(parsed.To, ","),
		Subject:        parsed.Subject,
		BodyText:       parsed.BodyText,
		Direction:      direction,
		Status:         status,
		MessageID:      messageID,
		InReplyTo:      parsed.Headers.InReplyTo,
		References:     parsed.Headers.References,
		ThreadID:       decision.ThreadID,
		HasAttachments: parsed.HasAttachments,
	}

	if err := s.emailLogRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, engineErrors.ErrDuplicateEntry) {
			span.SetTag("duplicate", true)
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.publisher.PublishEmailLogged(ctx, entry.ID, entry.UserID)
	return entry, nil
}
