package interfaces

import (
	"context"
	"time"

	"github.com/inboxpilot/mailsync/internal/models"
)

// FolderNode is one node of a mailbox folder tree as reported by the mail
// server. Attributes carry the raw protocol attributes, including special-use
// markers such as `\Sent` where the server advertises them.
type FolderNode struct {
	Name       string
	Delimiter  string
	Attributes []string
	Children   map[string]*FolderNode
}

// RawMessage is a fetched message with enough raw header and body bytes for
// the normalizer, plus the folder-scoped UID it was fetched under.
type RawMessage struct {
	UID uint32
	Raw []byte
}

// MailConnection is one authenticated inbound-mail session. Connections are
// opened per poll cycle and closed when the credential's pass completes.
type MailConnection interface {
	// FolderTree lists every folder on the server as a tree rooted at a
	// synthetic empty node.
	FolderTree(ctx context.Context) (*FolderNode, error)
	// FetchUnseen selects folder and returns unseen messages, marking them
	// seen as a side effect of the fetch.
	FetchUnseen(ctx context.Context, folder string) ([]*RawMessage, error)
	// FetchSince selects folder read-only and returns messages received
	// within the trailing window, without touching flags.
	FetchSince(ctx context.Context, folder string, since time.Time) ([]*RawMessage, error)
	// Append stores a raw message copy into folder.
	Append(ctx context.Context, folder string, raw []byte) error
	Close()
}

// MailboxAdapter opens inbound-mail connections for credentials.
type MailboxAdapter interface {
	Connect(ctx context.Context, credential *models.EmailCredential) (MailConnection, error)
}
