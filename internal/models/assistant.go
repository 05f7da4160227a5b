package models

import "time"

// Assistant is the persona record used to build auto-reply prompts. Owned by
// the assistant collaborator; read-only from the engine's perspective.
type Assistant struct {
	ID        string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	Prompt    string    `gorm:"column:prompt;type:text" json:"prompt"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Assistant) TableName() string {
	return "assistants"
}
