package autoreply

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/internal/enum"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/models"
)

type fakeAssistantRepo struct {
	assistants map[string]*models.Assistant
}

func (f *fakeAssistantRepo) GetByID(ctx context.Context, id string) (*models.Assistant, error) {
	return f.assistants[id], nil
}

type fakeLogRepo struct {
	history []*models.EmailMessageLog
}

func (f *fakeLogRepo) Create(ctx context.Context, entry *models.EmailMessageLog) error {
	return nil
}

func (f *fakeLogRepo) GetByID(ctx context.Context, id string) (*models.EmailMessageLog, error) {
	return nil, nil
}

func (f *fakeLogRepo) GetByMessageID(ctx context.Context, messageID string) (*models.EmailMessageLog, error) {
	return nil, nil
}

func (f *fakeLogRepo) GetOutboundByMessageIDs(ctx context.Context, userID string, messageIDs []string) (*models.EmailMessageLog, error) {
	return nil, nil
}

func (f *fakeLogRepo) ListByThread(ctx context.Context, threadID string, limit int) ([]*models.EmailMessageLog, error) {
	if limit > 0 && len(f.history) > limit {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

func (f *fakeLogRepo) FindLatestBySubject(ctx context.Context, userID, subject string) (*models.EmailMessageLog, error) {
	return nil, nil
}

type fakeCompletion struct {
	prompt string
	text   string
	err    error
}

func (f *fakeCompletion) GenerateText(ctx context.Context, request dto.CompletionRequest) (string, error) {
	f.prompt = request.Prompt
	return f.text, f.err
}

type fakeSender struct {
	email   *dto.OutboundEmail
	sendCtx dto.SendContext
	err     error
}

func (f *fakeSender) Send(ctx context.Context, credential *models.EmailCredential, email *dto.OutboundEmail, sendCtx dto.SendContext) (*models.EmailMessageLog, error) {
	f.email = email
	f.sendCtx = sendCtx
	if f.err != nil {
		return nil, f.err
	}
	return &models.EmailMessageLog{
		ID:        "elog_reply",
		UserID:    sendCtx.UserID,
		ThreadID:  sendCtx.ThreadID,
		Direction: enum.EmailDirectionOutbound,
		Status:    enum.EmailStatusSent,
	}, nil
}

func testLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{DevMode: true})
	l.InitLogger()
	return l
}

func testAssistant() *models.Assistant {
	return &models.Assistant{
		ID:     "asst-1",
		UserID: "user-1",
		Name:   "SDR Agent",
		Prompt: "You are a friendly sales development rep.",
	}
}

func inboundEntry() *models.EmailMessageLog {
	return &models.EmailMessageLog{
		ID:          "elog_in",
		UserID:      "user-1",
		AssistantID: "asst-1",
		CampaignID:  "camp-1",
		FromAddress: "prospect@example.com",
		ToAddress:   "agent@mail.example.com",
		Subject:     "Quick question",
		BodyText:    "Can you tell me more about pricing?",
		Direction:   enum.EmailDirectionInbound,
		Status:      enum.EmailStatusReceived,
		MessageID:   "in-1@example.com",
		InReplyTo:   "out-1@mail.example.com",
		References:  []string{"out-1@mail.example.com"},
		ThreadID:    "thread-1",
	}
}

func newService(assistants *fakeAssistantRepo, logs *fakeLogRepo, completion *fakeCompletion, sender *fakeSender) Service {
	return NewAutoReplyService(testLogger(), logs, assistants, completion, sender)
}

func TestReply_SendsThreadedReply(t *testing.T) {
	entry := inboundEntry()
	assistants := &fakeAssistantRepo{assistants: map[string]*models.Assistant{"asst-1": testAssistant()}}
	logs := &fakeLogRepo{history: []*models.EmailMessageLog{entry}}
	completion := &fakeCompletion{text: "Happy to walk you through pricing."}
	sender := &fakeSender{}

	s := newService(assistants, logs, completion, sender)

	credential := &models.EmailCredential{ID: "cred-1", EmailAddress: "agent@mail.example.com"}
	sent, err := s.Reply(context.Background(), credential, entry)
	require.NoError(t, err)
	require.NotNil(t, sent)

	require.NotNil(t, sender.email)
	assert.Equal(t, "agent@mail.example.com", sender.email.From)
	assert.Equal(t, "prospect@example.com", sender.email.To)
	assert.Equal(t, "Re: Quick question", sender.email.Subject)
	assert.Equal(t, "Happy to walk you through pricing.", sender.email.BodyText)
	assert.Equal(t, "in-1@example.com", sender.email.InReplyTo)
	assert.Equal(t, []string{"out-1@mail.example.com", "in-1@example.com"}, sender.email.References)

	assert.Equal(t, "user-1", sender.sendCtx.UserID)
	assert.Equal(t, "asst-1", sender.sendCtx.AssistantID)
	assert.Equal(t, "camp-1", sender.sendCtx.CampaignID)
	assert.Equal(t, "thread-1", sender.sendCtx.ThreadID)

	assert.Contains(t, completion.prompt, "friendly sales development rep")
	assert.Contains(t, completion.prompt, "Can you tell me more about pricing?")
}

func TestReply_SubjectAlreadyPrefixed(t *testing.T) {
	entry := inboundEntry()
	entry.Subject = "RE: Quick question"
	assistants := &fakeAssistantRepo{assistants: map[string]*models.Assistant{"asst-1": testAssistant()}}
	logs := &fakeLogRepo{history: []*models.EmailMessageLog{entry}}
	sender := &fakeSender{}

	s := newService(assistants, logs, &fakeCompletion{text: "Sure."}, sender)

	_, err := s.Reply(context.Background(), &models.EmailCredential{EmailAddress: "agent@mail.example.com"}, entry)
	require.NoError(t, err)
	assert.Equal(t, "RE: Quick question", sender.email.Subject)
}

func TestReply_UnknownAssistant(t *testing.T) {
	entry := inboundEntry()
	assistants := &fakeAssistantRepo{assistants: map[string]*models.Assistant{}}
	logs := &fakeLogRepo{history: []*models.EmailMessageLog{entry}}

	s := newService(assistants, logs, &fakeCompletion{text: "x"}, &fakeSender{})

	_, err := s.Reply(context.Background(), &models.EmailCredential{}, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, engineErrors.ErrAssistantNotFound)
}

func TestReply_OutboundEntryRejected(t *testing.T) {
	entry := inboundEntry()
	entry.Direction = enum.EmailDirectionOutbound

	s := newService(&fakeAssistantRepo{}, &fakeLogRepo{}, &fakeCompletion{}, &fakeSender{})

	_, err := s.Reply(context.Background(), &models.EmailCredential{}, entry)
	require.Error(t, err)
}

func TestReply_CompletionFailureSkipsSend(t *testing.T) {
	entry := inboundEntry()
	assistants := &fakeAssistantRepo{assistants: map[string]*models.Assistant{"asst-1": testAssistant()}}
	logs := &fakeLogRepo{history: []*models.EmailMessageLog{entry}}
	sender := &fakeSender{}

	s := newService(assistants, logs, &fakeCompletion{err: engineErrors.ErrCompletionFailed}, sender)

	_, err := s.Reply(context.Background(), &models.EmailCredential{}, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, engineErrors.ErrCompletionFailed)
	assert.Nil(t, sender.email, "no send should happen when completion fails")
}

func TestBuildPrompt_LabelsAndTruncation(t *testing.T) {
	long := strings.Repeat("a", 600)
	history := []*models.EmailMessageLog{
		{Direction: enum.EmailDirectionOutbound, FromAddress: "agent@mail.example.com", BodyText: "Intro offer"},
		{Direction: enum.EmailDirectionInbound, FromAddress: "prospect@example.com", BodyText: long},
	}

	prompt := BuildPrompt(testAssistant(), history)

	assert.Contains(t, prompt, "You (agent@mail.example.com): Intro offer")
	assert.Contains(t, prompt, "Them (prospect@example.com): "+strings.Repeat("a", 500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("a", 501))
}

func TestBuildPrompt_TruncationKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("é", 600)
	history := []*models.EmailMessageLog{
		{Direction: enum.EmailDirectionInbound, FromAddress: "prospect@example.com", BodyText: long},
	}

	prompt := BuildPrompt(testAssistant(), history)

	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, strings.Repeat("é", 500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("é", 501))
}

func TestBuildPrompt_HistoryWindow(t *testing.T) {
	var history []*models.EmailMessageLog
	for i := 0; i < 15; i++ {
		history = append(history, &models.EmailMessageLog{
			Direction:   enum.EmailDirectionInbound,
			FromAddress: "prospect@example.com",
			BodyText:    fmt.Sprintf("message %d", i),
		})
	}

	logs := &fakeLogRepo{history: history}
	limited, err := logs.ListByThread(context.Background(), "thread-1", historyLimit)
	require.NoError(t, err)
	require.Len(t, limited, 10)

	prompt := BuildPrompt(testAssistant(), limited)
	assert.NotContains(t, prompt, "message 4")
	assert.Contains(t, prompt, "message 5")
	assert.Contains(t, prompt, "message 14")
}
