package threads

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/internal/utils"
)

// Decision carries the thread an incoming message belongs to plus the
// attribution inherited from the matched outbound message. Empty ThreadID
// means no existing thread matched and the message starts its own.
type Decision struct {
	ThreadID    string
	AssistantID string
	CampaignID  string
}

type Resolver interface {
	Resolve(ctx context.Context, userID string, msg *dto.NormalizedMessage) (*Decision, error)
}

type resolver struct {
	cfg          *config.SyncConfig
	emailLogRepo interfaces.EmailLogRepository
}

func NewResolver(cfg *config.SyncConfig, emailLogRepo interfaces.EmailLogRepository) Resolver {
	return &resolver{
		cfg:          cfg,
		emailLogRepo: emailLogRepo,
	}
}

// Resolve walks the attachment cascade for a message already known to be
// new. Reference headers are matched against previously sent messages
// first; only when no reference hits does the subject fallback run, and
// only when it is enabled. Repository errors abort resolution rather than
// silently starting a fresh thread.
func (r *resolver) Resolve(ctx context.Context, userID string, msg *dto.NormalizedMessage) (*Decision, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "resolver.Resolve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("user.id", userID)
	span.SetTag("message.id", msg.Headers.MessageID)

	references := msg.AllReferences()
	if len(references) > 0 {
		matched, err := r.emailLogRepo.GetOutboundByMessageIDs(ctx, userID, references)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if matched != nil {
			span.SetTag("matched.by", "references")
			span.SetTag("thread.id", matched.ThreadID)
			return &Decision{
				ThreadID:    matched.ThreadID,
				AssistantID: matched.AssistantID,
				CampaignID:  matched.CampaignID,
			}, nil
		}
	}

	if r.cfg.SubjectThreading {
		normalized := utils.NormalizeEmailSubject(msg.Subject)
		if normalized != "" {
			matched, err := r.emailLogRepo.FindLatestBySubject(ctx, userID, normalized)
			if err != nil {
				tracing.TraceErr(span, err)
				return nil, err
			}
			if matched != nil {
				span.SetTag("matched.by", "subject")
				span.SetTag("thread.id", matched.ThreadID)
				return &Decision{
					ThreadID:    matched.ThreadID,
					AssistantID: matched.AssistantID,
					CampaignID:  matched.CampaignID,
				}, nil
			}
		}
	}

	span.SetTag("matched.by", "none")
	return &Decision{}, nil
}
