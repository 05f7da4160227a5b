package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpilot/mailsync/interfaces"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/models"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

const (
	authTimeout  = 10 * time.Second
	fetchTimeout = 60 * time.Second

	// implicitTLSPort is the standard IMAPS port; anything else dials plain
	// and relies on the server-side configuration.
	implicitTLSPort = 993
)

type mailboxAdapter struct{}

// NewMailboxAdapter returns the IMAP implementation of the inbound-mail
// protocol adapter.
func NewMailboxAdapter() interfaces.MailboxAdapter {
	return &mailboxAdapter{}
}

// Connect establishes and authenticates an IMAP session for a credential.
// Dial and login are both bounded by the authentication timeout; a hung
// server fails the credential for this cycle only.
func (a *mailboxAdapter) Connect(ctx context.Context, credential *models.EmailCredential) (interfaces.MailConnection, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxAdapter.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("credential.id", credential.ID)
	span.SetTag("server", credential.ImapHost)
	span.SetTag("port", credential.ImapPort)

	serverAddr := fmt.Sprintf("%s:%d", credential.ImapHost, credential.ImapPort)

	dialer := &net.Dialer{
		Timeout:   authTimeout,
		KeepAlive: 30 * time.Second,
	}

	var c *client.Client
	var err error

	if credential.ImapPort == implicitTLSPort {
		tlsConfig := &tls.Config{
			ServerName: credential.ImapHost,
		}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, errors.Wrapf(engineErrors.ErrConnectionTimeout, "dial %s: %v", serverAddr, err)
		}
		return nil, errors.Wrapf(engineErrors.ErrConnectionFailed, "dial %s: %v", serverAddr, err)
	}

	c.Timeout = authTimeout
	err = c.Login(credential.ImapUser, credential.ImapPass)
	if err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(engineErrors.ErrConnectionFailed, "login as %s: %v", credential.ImapUser, err)
	}
	c.Timeout = 0

	log.Printf("[%s] Connected and logged in to %s", credential.ID, serverAddr)
	span.SetTag("success", true)

	return &mailConnection{
		client:       c,
		credentialID: credential.ID,
	}, nil
}

type mailConnection struct {
	client       *client.Client
	credentialID string
}

func (c *mailConnection) Close() {
	if c.client == nil {
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- c.client.Logout()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("[%s] Error during logout: %v", c.credentialID, err)
		}
	case <-time.After(5 * time.Second):
		log.Printf("[%s] Logout timed out", c.credentialID)
	}
}
