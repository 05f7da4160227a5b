package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/inboxpilot/mailsync/internal/enum"
	"github.com/inboxpilot/mailsync/internal/utils"
)

// EmailMessageLog is one append-only row per message the engine has seen or
// sent. A thread is not a stored entity: it is the set of rows sharing a
// ThreadID, ordered by CreatedAt. Rows are never deleted by the engine and are
// mutated at most once, to self-assign their own id as ThreadID when no thread
// could be resolved.
type EmailMessageLog struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID      string `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	AssistantID string `gorm:"column:assistant_id;type:varchar(50);index" json:"assistantId,omitempty"`
	CampaignID  string `gorm:"column:campaign_id;type:varchar(50);index" json:"campaignId,omitempty"`

	FromAddress string `gorm:"column:from_address;type:varchar(255);index" json:"from"`
	ToAddress   string `gorm:"column:to_address;type:varchar(255);index" json:"to"`
	Subject     string `gorm:"column:subject;type:varchar(1000)" json:"subject"`
	BodyText    string `gorm:"column:body_text;type:text" json:"bodyText"`

	Direction    enum.EmailDirection `gorm:"column:direction;type:varchar(20);index;not null" json:"direction"`
	Status       enum.EmailStatus    `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	StatusDetail string              `gorm:"column:status_detail;type:text" json:"statusDetail,omitempty"`

	// MessageID is the protocol message identifier, the dedupe key: at most
	// one row exists per id. Stored without angle brackets.
	MessageID  string         `gorm:"column:message_id;uniqueIndex;type:varchar(255);not null" json:"messageId"`
	InReplyTo  string         `gorm:"column:in_reply_to;type:varchar(255);index" json:"inReplyTo,omitempty"`
	References pq.StringArray `gorm:"column:references;type:text[]" json:"references,omitempty"`
	ThreadID   string         `gorm:"column:thread_id;type:varchar(255);index" json:"threadId"`

	HasAttachments bool      `gorm:"column:has_attachments;default:false" json:"hasAttachments"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp;index" json:"createdAt"`
}

func (EmailMessageLog) TableName() string {
	return "email_message_logs"
}

func (e *EmailMessageLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("elog", 24)
	}
	e.CreatedAt = utils.Now()
	return nil
}
