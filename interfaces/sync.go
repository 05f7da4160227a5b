package interfaces

import "context"

// SyncService drives the mailbox poll cycle. RunCycle is safe to invoke on a
// fixed interval: if a cycle is already in progress the call returns
// immediately without side effects.
type SyncService interface {
	RunCycle(ctx context.Context)
}

// EventPublisher emits advisory notifications about engine activity. All
// methods are best-effort and must never fail the calling operation.
type EventPublisher interface {
	PublishEmailLogged(ctx context.Context, entryID, userID string)
	PublishReplySent(ctx context.Context, entryID, userID string)
	Close()
}
