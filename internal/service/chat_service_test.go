package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/memory"
	"rag-chat-be/pkg/apperror"
	"rag-chat-be/pkg/events"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/override"
	"rag-chat-be/pkg/rag/pipeline"
	"rag-chat-be/pkg/rag/provider"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, rc *pipeline.RequestContext) (*pipeline.RequestContext, error) {
	args := m.Called(ctx, rc)
	out, _ := args.Get(0).(*pipeline.RequestContext)
	return out, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evt events.Event) error {
	return m.Called(ctx, evt).Error(0)
}

func answered(rc *pipeline.RequestContext) *pipeline.RequestContext {
	rc.ContextText = "ctx"
	rc.Reasoning = "- fact"
	rc.Response = "answer"
	rc.Images = []string{"a.png"}
	rc.ReasoningProvider = "gemini"
	rc.GenerationProvider = "qwen"
	return rc
}

func TestChatPersistsAndPublishes(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		answered(args.Get(1).(*pipeline.RequestContext))
	}).Return(nil, nil).Once()

	store := &fakeStore{}
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.EventType() == events.TypeChatCompleted && e.Payload()["generation_provider"] == "qwen"
	})).Return(nil)

	svc := NewChatService(&passthroughRunner{runner}, memory.NewHistoryStore(time.Hour, 50), store, pub, logger.NewNopLogger())

	res, err := svc.Chat(context.Background(), &dto.ChatRequest{Question: "q", SessionId: "s1", UserId: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Response)
	assert.Equal(t, "- fact", res.Reasoning)
	assert.Equal(t, []string{"a.png"}, res.Images)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, res.ChatId, rec.Id)
	assert.Equal(t, "gemini", rec.ReasoningProvider)
	assert.Equal(t, "qwen", rec.GenerationProvider)
	assert.JSONEq(t, `["a.png"]`, string(rec.ImageUrls))
	pub.AssertExpectations(t)
}

// passthroughRunner lets the mock mutate the context and returns it.
type passthroughRunner struct {
	m *mockRunner
}

func (p *passthroughRunner) Run(ctx context.Context, rc *pipeline.RequestContext) (*pipeline.RequestContext, error) {
	if _, err := p.m.Run(ctx, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

func TestChatPropagatesPipelineErrors(t *testing.T) {
	stageErr := apperror.NewStageError("reasoning", errors.New("timeout"))
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(nil, stageErr)

	store := &fakeStore{}
	pub := new(mockPublisher)
	svc := NewChatService(runner, nil, store, pub, logger.NewNopLogger())

	_, err := svc.Chat(context.Background(), &dto.ChatRequest{Question: "q", SessionId: "s1", UserId: "u1"})
	assert.ErrorIs(t, err, stageErr)
	assert.Empty(t, store.records)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestChatSurvivesPersistenceFailure(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		answered(args.Get(1).(*pipeline.RequestContext))
	}).Return(nil, nil)

	store := &fakeStore{createErr: errors.New("db down")}
	svc := NewChatService(&passthroughRunner{runner}, nil, store, nil, logger.NewNopLogger())

	res, err := svc.Chat(context.Background(), &dto.ChatRequest{Question: "q", SessionId: "s1", UserId: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Response)
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	hs := memory.NewHistoryStore(time.Hour, 50)
	h, err := hs.History(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, h.AddMessage(ctx, llm.Message{Role: llm.RoleUser, Content: "hi"}))
	require.NoError(t, h.AddMessage(ctx, llm.Message{Role: llm.RoleAssistant, Content: "hello"}))

	svc := NewChatService(new(mockRunner), hs, nil, nil, logger.NewNopLogger())

	res, err := svc.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []dto.HistoryMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}, res.Messages)

	require.NoError(t, svc.ClearHistory(ctx, "s1"))
	res, err = svc.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, res.Messages)
}

func TestGetRecordsWithoutDatabase(t *testing.T) {
	svc := NewChatService(new(mockRunner), nil, nil, nil, logger.NewNopLogger())
	res, err := svc.GetRecords(context.Background(), "s1", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Records)

	_, err = svc.GetRecord(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrChatNotFound)
}

// overrideDroppingModel clears the session override while it answers, the
// way a concurrent DELETE /providers would.
type overrideDroppingModel struct {
	store *override.Store
	reply string
}

func (m *overrideDroppingModel) Chat(ctx context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	if err := m.store.Clear(ctx, "s1"); err != nil {
		return "", err
	}
	return m.reply, nil
}

func (m *overrideDroppingModel) Generate(ctx context.Context, _ string, _ ...llm.Option) (string, error) {
	return m.Chat(ctx, nil)
}

type replyModel string

func (r replyModel) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return string(r), nil
}

func (r replyModel) Generate(context.Context, string, ...llm.Option) (string, error) {
	return string(r), nil
}

func TestChatRecordsProvidersThatAnswered(t *testing.T) {
	ctx := context.Background()
	overrides := override.NewStore(memory.NewTTLCache(time.Hour, time.Minute), 30*time.Minute)
	_, err := overrides.Set(ctx, "s1", "", "qwen")
	require.NoError(t, err)

	resolver := provider.NewResolver(
		provider.Selection{ReasoningProvider: "gemini", GenerationProvider: "gemini"},
		overrides,
		func(tag string, _ llm.Purpose) (llm.LLMProvider, error) {
			if tag == "qwen" {
				return &overrideDroppingModel{store: overrides, reply: "qwen answer"}, nil
			}
			return replyModel("gemini says"), nil
		},
	)
	runner, err := pipeline.NewRunner(pipeline.Dependencies{Models: resolver}, []pipeline.Step{
		pipeline.Declare(pipeline.StageReasoning, nil),
		pipeline.Declare(pipeline.StageGeneration, nil),
	})
	require.NoError(t, err)

	store := &fakeStore{}
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Payload()["generation_provider"] == "qwen" && e.Payload()["reasoning_provider"] == "gemini"
	})).Return(nil).Once()

	svc := NewChatService(runner, nil, store, pub, logger.NewNopLogger())
	res, err := svc.Chat(ctx, &dto.ChatRequest{Question: "q", SessionId: "s1", UserId: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "qwen answer", res.Response)

	// The override is gone by now; the record still names the backend that answered.
	rec, err := overrides.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())

	require.Len(t, store.records, 1)
	assert.Equal(t, "gemini", store.records[0].ReasoningProvider)
	assert.Equal(t, "qwen", store.records[0].GenerationProvider)
	pub.AssertExpectations(t)
}

func seedRecords(store *fakeStore) []*model.ChatRecord {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.records = append(store.records, &model.ChatRecord{
			Id:        uuid.New(),
			SessionId: "s1",
			Question:  fmt.Sprintf("q%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	store.records = append(store.records, &model.ChatRecord{Id: uuid.New(), SessionId: "other", CreatedAt: base})
	return store.records
}

func TestGetRecordsPaginatesNewestFirst(t *testing.T) {
	store := &fakeStore{}
	seedRecords(store)
	svc := NewChatService(new(mockRunner), nil, store, nil, logger.NewNopLogger())

	res, err := svc.GetRecords(context.Background(), "s1", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, 1, res.Offset)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "q3", res.Records[0].Question)
	assert.Equal(t, "q2", res.Records[1].Question)

	res, err = svc.GetRecords(context.Background(), "s1", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Limit)
	assert.Equal(t, 0, res.Offset)
	assert.Len(t, res.Records, 5)
}

func TestGetRecord(t *testing.T) {
	store := &fakeStore{}
	recs := seedRecords(store)
	svc := NewChatService(new(mockRunner), nil, store, nil, logger.NewNopLogger())

	res, err := svc.GetRecord(context.Background(), recs[2].Id)
	require.NoError(t, err)
	assert.Equal(t, "q2", res.Question)
	assert.Equal(t, "s1", res.SessionId)

	_, err = svc.GetRecord(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrChatNotFound)
}
