package mailparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
)

const sampleMessage = "From: Ada Lovelace <ada@example.com>\r\n" +
	"To: Bob <bob@example.com>, carol@example.com\r\n" +
	"Cc: dave@example.com\r\n" +
	"Subject: Re: Quarterly numbers\r\n" +
	"Date: Mon, 13 Jan 2025 10:30:00 +0000\r\n" +
	"Message-ID: <msg-3@example.com>\r\n" +
	"In-Reply-To: <msg-2@example.com>\r\n" +
	"References: <msg-1@example.com>\r\n\t<msg-2@example.com>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Looks good to me.\r\n"

func TestParse_FullMessage(t *testing.T) {
	p := NewParser()

	msg, err := p.Parse(context.Background(), []byte(sampleMessage))
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.From)
	assert.Equal(t, "Ada Lovelace", msg.FromName)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, msg.To)
	assert.Equal(t, []string{"dave@example.com"}, msg.Cc)
	assert.Equal(t, "Re: Quarterly numbers", msg.Subject)
	assert.Contains(t, msg.BodyText, "Looks good to me.")
	assert.False(t, msg.HasAttachments)

	assert.Equal(t, "msg-3@example.com", msg.Headers.MessageID)
	assert.Equal(t, "msg-2@example.com", msg.Headers.InReplyTo)
	assert.Equal(t, []string{"msg-1@example.com", "msg-2@example.com"}, msg.Headers.References)

	require.NotNil(t, msg.Date)
	assert.Equal(t, 2025, msg.Date.Year())
	assert.Equal(t, 10, msg.Date.Hour())
}

func TestParse_AllReferencesDeduped(t *testing.T) {
	p := NewParser()

	msg, err := p.Parse(context.Background(), []byte(sampleMessage))
	require.NoError(t, err)

	all := msg.AllReferences()
	assert.Equal(t, []string{"msg-2@example.com", "msg-1@example.com"}, all)
}

func TestParse_HTMLOnlyBody(t *testing.T) {
	raw := "From: ada@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: hello\r\n" +
		"Message-ID: <h1@example.com>\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><head><style>p{color:red}</style></head>" +
		"<body><p>First line</p><p>Second line</p>" +
		"<script>alert(1)</script></body></html>\r\n"

	p := NewParser()
	msg, err := p.Parse(context.Background(), []byte(raw))
	require.NoError(t, err)

	assert.Contains(t, msg.BodyText, "First line")
	assert.Contains(t, msg.BodyText, "Second line")
	assert.NotContains(t, msg.BodyText, "alert")
	assert.NotContains(t, msg.BodyText, "color:red")
}

func TestParse_MissingOptionalHeaders(t *testing.T) {
	raw := "From: ada@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: no threading headers\r\n" +
		"\r\n" +
		"Standalone message.\r\n"

	p := NewParser()
	msg, err := p.Parse(context.Background(), []byte(raw))
	require.NoError(t, err)

	assert.Empty(t, msg.Headers.MessageID)
	assert.Empty(t, msg.Headers.InReplyTo)
	assert.Empty(t, msg.Headers.References)
	assert.Empty(t, msg.AllReferences())
}

func TestParse_EmptyInput(t *testing.T) {
	p := NewParser()

	_, err := p.Parse(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, engineErrors.ErrMessageParse)
}
