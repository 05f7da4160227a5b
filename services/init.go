package services

import (
	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/repository"
	"github.com/inboxpilot/mailsync/services/autoreply"
	"github.com/inboxpilot/mailsync/services/completion"
	"github.com/inboxpilot/mailsync/services/events"
	"github.com/inboxpilot/mailsync/services/imap"
	"github.com/inboxpilot/mailsync/services/mailparse"
	"github.com/inboxpilot/mailsync/services/smtp"
	syncsvc "github.com/inboxpilot/mailsync/services/sync"
	"github.com/inboxpilot/mailsync/services/threads"
)

type Services struct {
	EventPublisher    interfaces.EventPublisher
	MailboxAdapter    interfaces.MailboxAdapter
	Parser            mailparse.Parser
	ThreadResolver    threads.Resolver
	EmailSender       interfaces.EmailSender
	CompletionService interfaces.CompletionService
	AutoReplyService  autoreply.Service
	SyncService       interfaces.SyncService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) *Services {
	publisher := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log)
	adapter := imap.NewMailboxAdapter()
	parser := mailparse.NewParser()
	resolver := threads.NewResolver(cfg.SyncConfig, repos.EmailLogRepository)
	sender := smtp.NewEmailSender(cfg.SyncConfig, log, smtp.NewNetTransport(), repos.EmailLogRepository, adapter)
	completionService := completion.NewCompletionService(cfg.CompletionConfig, log)
	autoReplyService := autoreply.NewAutoReplyService(log, repos.EmailLogRepository, repos.AssistantRepository, completionService, sender)

	syncService := syncsvc.NewSyncService(
		cfg.SyncConfig,
		log,
		repos.CredentialRepository,
		repos.EmailLogRepository,
		adapter,
		parser,
		resolver,
		autoReplyService,
		publisher,
	)

	return &Services{
		EventPublisher:    publisher,
		MailboxAdapter:    adapter,
		Parser:            parser,
		ThreadResolver:    resolver,
		EmailSender:       sender,
		CompletionService: completionService,
		AutoReplyService:  autoReplyService,
		SyncService:       syncService,
	}
}
