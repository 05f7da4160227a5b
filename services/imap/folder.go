package imap

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

// FolderTree lists all mailboxes on the server and arranges them into a
// hierarchy using the delimiter each listing reports. Node names carry the
// full path as the server spells it, so a node can be selected directly.
func (c *mailConnection) FolderTree(ctx context.Context) (*interfaces.FolderNode, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailConnection.FolderTree")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", c.credentialID)

	mailboxes := make(chan *imap.MailboxInfo, 25)
	done := make(chan error, 1)
	go func() {
		done <- c.client.List("", "*", mailboxes)
	}()

	var listings []*imap.MailboxInfo
	for m := range mailboxes {
		listings = append(listings, m)
	}
	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Name < listings[j].Name
	})

	root := &interfaces.FolderNode{
		Children: make(map[string]*interfaces.FolderNode),
	}

	for _, m := range listings {
		delimiter := m.Delimiter
		segments := []string{m.Name}
		if delimiter != "" {
			segments = strings.Split(m.Name, delimiter)
		}

		node := root
		path := ""
		for _, segment := range segments {
			if path == "" {
				path = segment
			} else {
				path = path + delimiter + segment
			}
			child, ok := node.Children[segment]
			if !ok {
				child = &interfaces.FolderNode{
					Name:      path,
					Delimiter: delimiter,
					Children:  make(map[string]*interfaces.FolderNode),
				}
				node.Children[segment] = child
			}
			node = child
		}
		// Attributes belong to the listed mailbox, not to intermediate
		// nodes synthesized for its ancestors.
		node.Attributes = m.Attributes
	}

	log.Printf("[%s] Listed %d folders", c.credentialID, len(listings))
	span.SetTag("folders.count", len(listings))

	return root, nil
}
