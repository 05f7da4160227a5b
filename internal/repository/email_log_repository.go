package repository

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/enum"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/models"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/internal/utils"
)

type emailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) interfaces.EmailLogRepository {
	return &emailLogRepository{
		db: db,
	}
}

func (r *emailLogRepository) Create(ctx context.Context, entry *models.EmailMessageLog) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailLogRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if entry == nil {
		err := errors.New("log entry cannot be nil")
		tracing.TraceErr(span, err)
		return err
	}

	if entry.MessageID != "" {
		entry.MessageID = strings.Trim(entry.MessageID, "<>")
	}

	existing := &models.EmailMessageLog{}
	err := r.db.WithContext(ctx).
		Where("message_id = ?", entry.MessageID).
		First(existing).Error
	if err == nil {
		span.SetTag("duplicate", true)
		return errors.Wrap(engineErrors.ErrDuplicateEntry, entry.MessageID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tracing.TraceErr(span, err)
		return err
	}

	result := r.db.WithContext(ctx).Create(entry)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}

	// Self-threading: an entry that resolved to no thread anchors a new one
	// under its own id.
	if entry.ThreadID == "" {
		err = r.db.WithContext(ctx).
			Model(&models.EmailMessageLog{}).
			Where("id = ?", entry.ID).
			Update("thread_id", entry.ID).Error
		if err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		entry.ThreadID = entry.ID
	}

	span.SetTag("entity-id", entry.ID)
	return nil
}

func (r *emailLogRepository) GetByID(ctx context.Context, id string) (*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailLogRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var entry models.EmailMessageLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &entry, nil
}

func (r *emailLogRepository) GetByMessageID(ctx context.Context, messageID string) (*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailLogRepository.GetByMessageID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	messageID = utils.NormalizeMessageID(messageID)

	var entry models.EmailMessageLog
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &entry, nil
}

func (r *emailLogRepository) GetOutboundByMessageIDs(ctx context.Context, userID string, messageIDs []string) (*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailLogRepository.GetOutboundByMessageIDs")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("candidates", len(messageIDs))

	if len(messageIDs) == 0 {
		return nil, nil
	}

	cleaned := make([]string, 0, len(messageIDs))
	for _, id := range messageIDs {
		if id = utils.NormalizeMessageID(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	var entry models.EmailMessageLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND direction = ? AND message_id IN ?", userID, enum.EmailDirectionOutbound, cleaned).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &entry, nil
}

func (r *emailLogRepository) ListByThread(ctx context.Context, threadID string, limit int) ([]*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailLogRepository.ListByThread")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("thread_id", threadID)

	var entries []*models.EmailMessageLog

	query := r.db.WithContext(ctx).Where("thread_id = ?", threadID)
	if limit > 0 {
		// Keep the most recent entries but return them oldest first.
		if err := query.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
		return entries, nil
	}

	if err := query.Order("created_at ASC").Find(&entries).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePattern neutralizes LIKE metacharacters in a subject so a literal
// "%" or "_" in a real subject never acts as a wildcard.
func escapeLikePattern(value string) string {
	return likeEscaper.Replace(value)
}

func (r *emailLogRepository) FindLatestBySubject(ctx context.Context, userID, subject string) (*models.EmailMessageLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailLogRepository.FindLatestBySubject")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if subject == "" {
		return nil, nil
	}

	var entry models.EmailMessageLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND subject ILIKE ?", userID, "%"+escapeLikePattern(subject)+"%").
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &entry, nil
}
