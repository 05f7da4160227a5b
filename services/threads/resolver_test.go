package threads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/internal/models"
)

type fakeEmailLogRepo struct {
	byMessageID   map[string]*models.EmailMessageLog
	bySubject     map[string]*models.EmailMessageLog
	refQueries    [][]string
	subjectQuery  string
	subjectCalled bool
}

func newFakeEmailLogRepo() *fakeEmailLogRepo {
	return &fakeEmailLogRepo{
		byMessageID: make(map[string]*models.EmailMessageLog),
		bySubject:   make(map[string]*models.EmailMessageLog),
	}
}

func (f *fakeEmailLogRepo) Create(ctx context.Context, entry *models.EmailMessageLog) error {
	return nil
}

func (f *fakeEmailLogRepo) GetByID(ctx context.Context, id string) (*models.EmailMessageLog, error) {
	return nil, nil
}

func (f *fakeEmailLogRepo) GetByMessageID(ctx context.Context, messageID string) (*models.EmailMessageLog, error) {
	return f.byMessageID[messageID], nil
}

func (f *fakeEmailLogRepo) GetOutboundByMessageIDs(ctx context.Context, userID string, messageIDs []string) (*models.EmailMessageLog, error) {
	f.refQueries = append(f.refQueries, messageIDs)
	for _, id := range messageIDs {
		if entry, ok := f.byMessageID[id]; ok && entry.UserID == userID {
			return entry, nil
		}
	}
	return nil, nil
}

func (f *fakeEmailLogRepo) ListByThread(ctx context.Context, threadID string, limit int) ([]*models.EmailMessageLog, error) {
	return nil, nil
}

func (f *fakeEmailLogRepo) FindLatestBySubject(ctx context.Context, userID, subject string) (*models.EmailMessageLog, error) {
	f.subjectCalled = true
	f.subjectQuery = subject
	return f.bySubject[subject], nil
}

func inboundMessage(subject, inReplyTo string, references ...string) *dto.NormalizedMessage {
	return &dto.NormalizedMessage{
		From:    "prospect@example.com",
		Subject: subject,
		Headers: dto.ReferenceHeaders{
			MessageID:  "incoming@example.com",
			InReplyTo:  inReplyTo,
			References: references,
		},
	}
}

func TestResolve_MatchesOutboundReference(t *testing.T) {
	repo := newFakeEmailLogRepo()
	repo.byMessageID["out-1@mail.example.com"] = &models.EmailMessageLog{
		ID:          "elog_1",
		UserID:      "user-1",
		ThreadID:    "elog_1",
		AssistantID: "asst-1",
		CampaignID:  "camp-1",
	}

	r := NewResolver(&config.SyncConfig{SubjectThreading: true}, repo)

	decision, err := r.Resolve(context.Background(), "user-1", inboundMessage("Re: Hello", "out-1@mail.example.com"))
	require.NoError(t, err)

	assert.Equal(t, "elog_1", decision.ThreadID)
	assert.Equal(t, "asst-1", decision.AssistantID)
	assert.Equal(t, "camp-1", decision.CampaignID)
	assert.False(t, repo.subjectCalled, "reference match should short-circuit the subject fallback")
}

func TestResolve_SubjectFallback(t *testing.T) {
	repo := newFakeEmailLogRepo()
	repo.bySubject["quarterly numbers"] = &models.EmailMessageLog{
		ID:          "elog_7",
		UserID:      "user-1",
		ThreadID:    "elog_7",
		AssistantID: "asst-2",
	}

	r := NewResolver(&config.SyncConfig{SubjectThreading: true}, repo)

	decision, err := r.Resolve(context.Background(), "user-1", inboundMessage("Re: Fwd: quarterly numbers", ""))
	require.NoError(t, err)

	assert.Equal(t, "elog_7", decision.ThreadID)
	assert.Equal(t, "asst-2", decision.AssistantID)
	assert.Equal(t, "quarterly numbers", repo.subjectQuery, "subject should be cleaned of reply prefixes")
}

func TestResolve_SubjectFallbackDisabled(t *testing.T) {
	repo := newFakeEmailLogRepo()
	repo.bySubject["quarterly numbers"] = &models.EmailMessageLog{
		ID:       "elog_7",
		UserID:   "user-1",
		ThreadID: "elog_7",
	}

	r := NewResolver(&config.SyncConfig{SubjectThreading: false}, repo)

	decision, err := r.Resolve(context.Background(), "user-1", inboundMessage("Re: quarterly numbers", ""))
	require.NoError(t, err)

	assert.Empty(t, decision.ThreadID)
	assert.False(t, repo.subjectCalled)
}

func TestResolve_NoMatchStartsFreshThread(t *testing.T) {
	repo := newFakeEmailLogRepo()

	r := NewResolver(&config.SyncConfig{SubjectThreading: true}, repo)

	decision, err := r.Resolve(context.Background(), "user-1", inboundMessage("Brand new topic", "", "unknown@elsewhere.com"))
	require.NoError(t, err)

	assert.Empty(t, decision.ThreadID)
	assert.Empty(t, decision.AssistantID)
	require.Len(t, repo.refQueries, 1)
	assert.Equal(t, []string{"unknown@elsewhere.com"}, repo.refQueries[0])
}

func TestResolve_EmptySubjectSkipsFallback(t *testing.T) {
	repo := newFakeEmailLogRepo()

	r := NewResolver(&config.SyncConfig{SubjectThreading: true}, repo)

	decision, err := r.Resolve(context.Background(), "user-1", inboundMessage("Re:", ""))
	require.NoError(t, err)

	assert.Empty(t, decision.ThreadID)
	assert.False(t, repo.subjectCalled)
}
