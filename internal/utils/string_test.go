package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmailSubject(t *testing.T) {
	assert.Equal(t, "Quote", NormalizeEmailSubject("Re: Quote"))
	assert.Equal(t, "Quote", NormalizeEmailSubject("Re: Re: Quote"))
	assert.Equal(t, "Quote", NormalizeEmailSubject("RE: fwd: Quote"))
	assert.Equal(t, "Quote", NormalizeEmailSubject("Fw: Quote"))
	assert.Equal(t, "Quote", NormalizeEmailSubject("Re[2]: Quote"))
	assert.Equal(t, "Quote", NormalizeEmailSubject("  Quote  "))
	assert.Equal(t, "", NormalizeEmailSubject("Re:"))
	assert.Equal(t, "Recent news", NormalizeEmailSubject("Recent news"))
}

func TestNormalizeMessageID(t *testing.T) {
	assert.Equal(t, "abc@example.com", NormalizeMessageID("<abc@example.com>"))
	assert.Equal(t, "abc@example.com", NormalizeMessageID(" <abc@example.com> "))
	assert.Equal(t, "abc@example.com", NormalizeMessageID("abc@example.com"))
	assert.Equal(t, "", NormalizeMessageID(""))
}

func TestEnsureReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Quote", EnsureReplySubject("Quote"))
	assert.Equal(t, "Re: Quote", EnsureReplySubject("Re: Quote"))
	assert.Equal(t, "RE: Quote", EnsureReplySubject("RE: Quote"))
	assert.Equal(t, "Re: ", EnsureReplySubject(""))
}

func TestGenerateMessageID(t *testing.T) {
	id := GenerateMessageID("mail.example.com", "")
	assert.Contains(t, id, "@mail.example.com>")
	assert.Contains(t, id, "<")

	withMeta := GenerateMessageID("mail.example.com", "recipient@example.com")
	assert.NotEqual(t, id, withMeta)
}
