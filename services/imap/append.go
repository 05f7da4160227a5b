package imap

import (
	"bytes"
	"context"
	"log"
	"time"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/mailsync/internal/tracing"
)

// Append uploads a raw message to a folder with the seen flag set, used to
// archive outbound mail into the sent mailbox.
func (c *mailConnection) Append(ctx context.Context, folderName string, raw []byte) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailConnection.Append")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", c.credentialID)
	span.SetTag("folder", folderName)
	span.SetTag("size", len(raw))

	flags := []string{imap.SeenFlag}

	c.client.Timeout = fetchTimeout
	defer func() { c.client.Timeout = 0 }()

	err := c.client.Append(folderName, flags, time.Now(), bytes.NewReader(raw))
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	log.Printf("[%s][%s] Appended message (%d bytes)", c.credentialID, folderName, len(raw))
	return nil
}
