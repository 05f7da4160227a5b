package repository

import (
	"gorm.io/gorm"

	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/models"
)

type Repositories struct {
	CredentialRepository interfaces.CredentialRepository
	EmailLogRepository   interfaces.EmailLogRepository
	AssistantRepository  interfaces.AssistantRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		CredentialRepository: NewCredentialRepository(db),
		EmailLogRepository:   NewEmailLogRepository(db),
		AssistantRepository:  NewAssistantRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.EmailCredential{},
		&models.EmailMessageLog{},
		&models.Assistant{},
	)
}
