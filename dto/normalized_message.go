package dto

import "time"

// ReferenceHeaders is the typed result of raw header extraction. Ids are
// stored without angle brackets; References is deduplicated and ordered as
// encountered.
type ReferenceHeaders struct {
	MessageID  string
	InReplyTo  string
	References []string
}

// NormalizedMessage is the engine-internal shape of a parsed mail message,
// produced by the normalizer and consumed by the thread resolver and the
// auto-reply generator.
type NormalizedMessage struct {
	From           string
	FromName       string
	To             []string
	Cc             []string
	Subject        string
	BodyText       string
	BodyHTML       string
	Date           *time.Time
	HasAttachments bool
	Headers        ReferenceHeaders
}

// AllReferences collects the in-reply-to id plus every references id into one
// candidate set for thread resolution.
func (m *NormalizedMessage) AllReferences() []string {
	refs := make([]string, 0, len(m.Headers.References)+1)
	seen := make(map[string]struct{})

	add := func(ref string) {
		if ref == "" {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	add(m.Headers.InReplyTo)
	for _, ref := range m.Headers.References {
		add(ref)
	}
	return refs
}
