package dto

// OutboundEmail is a message to be delivered by the outbound sender.
type OutboundEmail struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	BodyText  string `json:"bodyText"`
	BodyHTML  string `json:"bodyHtml,omitempty"`
	InReplyTo string `json:"inReplyTo,omitempty"`
	// References carries the full reference chain for threaded replies,
	// bracket-free ids oldest first.
	References []string `json:"references,omitempty"`
}

// SendContext carries the log linkage for a send: who owns the entry and
// which thread/assistant/campaign it belongs to, when known up front.
type SendContext struct {
	UserID      string `json:"userId"`
	AssistantID string `json:"assistantId,omitempty"`
	CampaignID  string `json:"campaignId,omitempty"`
	ThreadID    string `json:"threadId,omitempty"`
}

type SendEmailRequest struct {
	OutboundEmail
	SendContext
	CredentialID string `json:"credentialId"`
}
