package models

import (
	"time"
)

// EmailCredential is a per-user mail account configuration owned by the
// credential store. The sync engine only ever reads these rows.
type EmailCredential struct {
	ID           string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID       string `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	EmailAddress string `gorm:"column:email_address;type:varchar(255);index" json:"emailAddress"`
	IsActive     bool   `gorm:"column:is_active;not null;default:true" json:"isActive"`
	// SMTP Configuration
	SmtpHost string `gorm:"column:smtp_host;type:varchar(255)" json:"smtpHost"`
	SmtpPort int    `gorm:"column:smtp_port" json:"smtpPort"`
	SmtpUser string `gorm:"column:smtp_user;type:varchar(255)" json:"smtpUser"`
	SmtpPass string `gorm:"column:smtp_pass;type:varchar(255)" json:"-"`
	// IMAP Configuration
	ImapHost string `gorm:"column:imap_host;type:varchar(255)" json:"imapHost"`
	ImapPort int    `gorm:"column:imap_port" json:"imapPort"`
	ImapUser string `gorm:"column:imap_user;type:varchar(255)" json:"imapUser"`
	ImapPass string `gorm:"column:imap_pass;type:varchar(255)" json:"-"`
	// Standard timestamps
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (EmailCredential) TableName() string {
	return "email_credentials"
}

// HasImapConfig reports whether the inbound side is usable, which gates both
// mailbox polling and sent-folder archiving.
func (c *EmailCredential) HasImapConfig() bool {
	return c.ImapHost != "" && c.ImapUser != "" && c.ImapPass != ""
}

func (c *EmailCredential) HasSmtpConfig() bool {
	return c.SmtpHost != "" && c.SmtpUser != "" && c.SmtpPass != ""
}
