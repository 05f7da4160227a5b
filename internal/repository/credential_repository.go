package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/models"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) interfaces.CredentialRepository {
	return &credentialRepository{
		db: db,
	}
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (*models.EmailCredential, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "credentialRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var credential models.EmailCredential
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &credential, nil
}

func (r *credentialRepository) GetActiveWithSmtp(ctx context.Context) ([]*models.EmailCredential, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "credentialRepository.GetActiveWithSmtp")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var credentials []*models.EmailCredential
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND smtp_pass <> ''", true).
		Order("created_at ASC").
		Find(&credentials).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("credentials.count", len(credentials))
	return credentials, nil
}
