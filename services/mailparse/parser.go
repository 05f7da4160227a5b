package mailparse

import (
	"bytes"
	"context"
	"net/mail"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpilot/mailsync/dto"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/internal/utils"
)

type Parser interface {
	Parse(ctx context.Context, raw []byte) (*dto.NormalizedMessage, error)
}

type parser struct{}

func NewParser() Parser {
	return &parser{}
}

// Parse decodes a raw RFC 5322 message into the normalized shape the rest
// of the engine works with. Header extraction is tolerant: a message with a
// missing or malformed optional header still normalizes, only an undecodable
// envelope is an error.
func (p *parser) Parse(ctx context.Context, raw []byte) (*dto.NormalizedMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "parser.Parse")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("size", len(raw))

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(engineErrors.ErrMessageParse, "read envelope: %v", err)
	}

	msg := &dto.NormalizedMessage{
		Subject:        envelope.GetHeader("Subject"),
		BodyText:       envelope.Text,
		BodyHTML:       envelope.HTML,
		HasAttachments: len(envelope.Attachments) > 0 || len(envelope.Inlines) > 0,
	}

	msg.From, msg.FromName = parseSingleAddress(envelope.GetHeader("From"))
	msg.To = parseAddressList(envelope.GetHeader("To"))
	msg.Cc = parseAddressList(envelope.GetHeader("Cc"))

	if date, err := mail.ParseDate(envelope.GetHeader("Date")); err == nil {
		utc := date.UTC()
		msg.Date = &utc
	}

	msg.Headers = dto.ReferenceHeaders{
		MessageID:  utils.NormalizeMessageID(envelope.GetHeader("Message-ID")),
		InReplyTo:  utils.NormalizeMessageID(envelope.GetHeader("In-Reply-To")),
		References: splitReferences(envelope.GetHeader("References")),
	}

	if msg.BodyText == "" && msg.BodyHTML != "" {
		msg.BodyText = extractTextFromHTML(msg.BodyHTML)
	}

	span.SetTag("message.id", msg.Headers.MessageID)
	return msg, nil
}

// parseSingleAddress returns the clean address and display name of the
// first mailbox in a header value. Falls back to syntax validation when the
// header does not parse as an address.
func parseSingleAddress(header string) (address string, name string) {
	if header == "" {
		return "", ""
	}
	parsed, err := mail.ParseAddress(header)
	if err == nil {
		return cleanAddress(parsed.Address), parsed.Name
	}

	validation := mailvalidate.ValidateEmailSyntax(header)
	if validation.IsValid {
		return validation.CleanEmail, ""
	}
	return strings.TrimSpace(header), ""
}

func parseAddressList(header string) []string {
	if header == "" {
		return nil
	}

	var addresses []string
	parsed, err := mail.ParseAddressList(header)
	if err == nil {
		for _, addr := range parsed {
			clean := cleanAddress(addr.Address)
			if clean != "" && !utils.IsStringInSlice(clean, addresses) {
				addresses = append(addresses, clean)
			}
		}
		return addresses
	}

	// Malformed lists still often contain usable addresses between commas
	for _, part := range strings.Split(header, ",") {
		clean, _ := parseSingleAddress(strings.TrimSpace(part))
		if clean != "" && !utils.IsStringInSlice(clean, addresses) {
			addresses = append(addresses, clean)
		}
	}
	return addresses
}

func cleanAddress(address string) string {
	validation := mailvalidate.ValidateEmailSyntax(address)
	if validation.IsValid {
		return validation.CleanEmail
	}
	return strings.ToLower(strings.TrimSpace(address))
}

// splitReferences breaks a References header into individual message ids.
// Entries can be space or newline separated and wrapped in angle brackets.
func splitReferences(header string) []string {
	if header == "" {
		return nil
	}

	header = strings.ReplaceAll(header, "\r\n", " ")
	header = strings.ReplaceAll(header, "\n", " ")

	var references []string
	for _, ref := range strings.Fields(header) {
		if ref = strings.Trim(ref, "<>"); ref != "" {
			references = append(references, ref)
		}
	}
	return utils.UniqueStrings(references)
}

// extractTextFromHTML derives a plain-text body from HTML-only messages.
func extractTextFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style").Each(func(i int, el *goquery.Selection) {
		el.Remove()
	})

	text := doc.Text()
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
