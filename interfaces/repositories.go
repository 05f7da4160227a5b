package interfaces

import (
	"context"

	"github.com/inboxpilot/mailsync/internal/models"
)

// CredentialRepository reads per-user mail account configuration. Owned by the
// credential store; the engine never writes through it.
type CredentialRepository interface {
	GetByID(ctx context.Context, id string) (*models.EmailCredential, error)
	// GetActiveWithSmtp returns credentials with is_active=true and a
	// non-empty outbound password, the set the poller iterates.
	GetActiveWithSmtp(ctx context.Context) ([]*models.EmailCredential, error)
}

// EmailLogRepository is the append-only message log store.
type EmailLogRepository interface {
	// Create inserts the entry. When entry.ThreadID is empty the entry is
	// self-threaded: its own id becomes its thread id before Create returns.
	Create(ctx context.Context, entry *models.EmailMessageLog) error
	GetByID(ctx context.Context, id string) (*models.EmailMessageLog, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.EmailMessageLog, error)
	// GetOutboundByMessageIDs returns the first outbound entry for the user
	// whose protocol message id is in the candidate set, or nil.
	GetOutboundByMessageIDs(ctx context.Context, userID string, messageIDs []string) (*models.EmailMessageLog, error)
	// ListByThread returns entries ordered oldest to newest. A limit of 0
	// means no limit; a positive limit keeps the most recent entries.
	ListByThread(ctx context.Context, threadID string, limit int) ([]*models.EmailMessageLog, error)
	// FindLatestBySubject returns the most recent entry for the user whose
	// subject contains the cleaned subject, case-insensitive, or nil.
	FindLatestBySubject(ctx context.Context, userID, subject string) (*models.EmailMessageLog, error)
}

// AssistantRepository reads persona records for auto-reply prompts.
type AssistantRepository interface {
	GetByID(ctx context.Context, id string) (*models.Assistant, error)
}
