package interfaces

import (
	"context"

	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/internal/models"
)

// EmailSender delivers a message over the outbound transport and always
// writes a log entry, sent or failed. Transport failures are returned to the
// caller after logging; sent-folder archive failures never are.
type EmailSender interface {
	Send(ctx context.Context, credential *models.EmailCredential, email *dto.OutboundEmail, sendCtx dto.SendContext) (*models.EmailMessageLog, error)
}
