package imap

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

// FetchUnseen selects a folder read-write, searches for messages without
// the seen flag and downloads their full bodies. The non-peek body fetch
// flags each downloaded message as seen on the server, so a message is
// handed to the caller exactly once across cycles.
func (c *mailConnection) FetchUnseen(ctx context.Context, folderName string) ([]*interfaces.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailConnection.FetchUnseen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", c.credentialID)
	span.SetTag("folder", folderName)

	_, err := c.client.Select(folderName, false)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("search.count", len(uids))
	if len(uids) == 0 {
		return nil, nil
	}

	log.Printf("[%s][%s] Found %d unseen messages", c.credentialID, folderName, len(uids))

	messages, err := c.fetchBodies(uids, false)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return messages, nil
}

// FetchSince selects a folder read-only and downloads full bodies of
// messages whose internal date falls after the cutoff. Bodies are fetched
// with peek so the pass leaves no trace on the mailbox.
func (c *mailConnection) FetchSince(ctx context.Context, folderName string, since time.Time) ([]*interfaces.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailConnection.FetchSince")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", c.credentialID)
	span.SetTag("folder", folderName)
	span.SetTag("since", since.Format(time.RFC3339))

	_, err := c.client.Select(folderName, true)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since

	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("search.count", len(uids))
	if len(uids) == 0 {
		return nil, nil
	}

	log.Printf("[%s][%s] Found %d messages since %s", c.credentialID, folderName, len(uids), since.Format("2006-01-02"))

	messages, err := c.fetchBodies(uids, true)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return messages, nil
}

func (c *mailConnection) fetchBodies(uids []uint32, peek bool) ([]*interfaces.RawMessage, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: peek}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	c.client.Timeout = fetchTimeout
	defer func() { c.client.Timeout = 0 }()

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var result []*interfaces.RawMessage
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			log.Printf("[%s] Message uid %d returned no body section", c.credentialID, msg.Uid)
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			log.Printf("[%s] Failed to read body of uid %d: %v", c.credentialID, msg.Uid, err)
			continue
		}
		result = append(result, &interfaces.RawMessage{
			UID: msg.Uid,
			Raw: raw,
		})
	}

	if err := <-done; err != nil {
		return nil, err
	}
	return result, nil
}
