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

type assistantRepository struct {
	db *gorm.DB
}

func NewAssistantRepository(db *gorm.DB) interfaces.AssistantRepository {
	return &assistantRepository{
		db: db,
	}
}

func (r *assistantRepository) GetByID(ctx context.Context, id string) (*models.Assistant, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "assistantRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var assistant models.Assistant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&assistant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &assistant, nil
}
