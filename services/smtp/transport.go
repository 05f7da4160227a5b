package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/mailsync/internal/models"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

// implicitTLSPort is the SMTPS port; delivery to it wraps the whole session
// in TLS. Any other port opens plaintext and upgrades via STARTTLS.
const implicitTLSPort = 465

// Transport is the wire-level delivery step, separated from message
// assembly and logging so those can be exercised without a live server.
type Transport interface {
	Deliver(ctx context.Context, credential *models.EmailCredential, from string, recipients []string, raw []byte) error
}

type netTransport struct{}

func NewNetTransport() Transport {
	return &netTransport{}
}

func (t *netTransport) Deliver(ctx context.Context, credential *models.EmailCredential, from string, recipients []string, raw []byte) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "netTransport.Deliver")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", credential.SmtpHost)
	span.SetTag("port", credential.SmtpPort)
	span.SetTag("recipients.count", len(recipients))

	addr := fmt.Sprintf("%s:%d", credential.SmtpHost, credential.SmtpPort)
	auth := smtp.PlainAuth("", credential.SmtpUser, credential.SmtpPass, credential.SmtpHost)

	var err error
	if credential.SmtpPort == implicitTLSPort {
		err = t.deliverWithImplicitTLS(addr, credential.SmtpHost, auth, from, recipients, raw)
	} else {
		err = t.deliverWithStartTLS(addr, credential.SmtpHost, auth, from, recipients, raw)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (t *netTransport) deliverWithImplicitTLS(addr, host string, auth smtp.Auth, from string, recipients []string, raw []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	return submit(client, from, recipients, raw)
}

func (t *netTransport) deliverWithStartTLS(addr, host string, auth smtp.Auth, from string, recipients []string, raw []byte) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: host,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	return submit(client, from, recipients, raw)
}

func submit(client *smtp.Client, from string, recipients []string, raw []byte) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}

	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("SMTP RCPT command failed for %s: %w", recipient, err)
		}
	}

	dataWriter, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}

	if _, err = dataWriter.Write(raw); err != nil {
		return fmt.Errorf("failed to write email data: %w", err)
	}

	if err = dataWriter.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
