package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/events"
	"rag-chat-be/pkg/rag/history"
	"rag-chat-be/pkg/rag/pipeline"
)

type IChatService interface {
	Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
	GetHistory(ctx context.Context, sessionId string) (*dto.GetHistoryResponse, error)
	ClearHistory(ctx context.Context, sessionId string) error
	GetRecords(ctx context.Context, sessionId string, limit, offset int) (*dto.ChatRecordListResponse, error)
	GetRecord(ctx context.Context, chatId uuid.UUID) (*dto.ChatRecordResponse, error)
}

var ErrChatNotFound = errors.New("chat record not found")

// PipelineRunner runs the chat pipeline over one request context.
type PipelineRunner interface {
	Run(ctx context.Context, rc *pipeline.RequestContext) (*pipeline.RequestContext, error)
}

// EventPublisher is the optional event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type chatService struct {
	runner       PipelineRunner
	historyStore history.Store
	uowFactory   unitofwork.RepositoryFactory
	events       EventPublisher
	logger       logger.ILogger
}

// NewChatService wires the chat flow. uowFactory and events may be nil, in
// which case records are not persisted and no events are published.
func NewChatService(
	runner PipelineRunner,
	historyStore history.Store,
	uowFactory unitofwork.RepositoryFactory,
	events EventPublisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		runner:       runner,
		historyStore: historyStore,
		uowFactory:   uowFactory,
		events:       events,
		logger:       log,
	}
}

func (s *chatService) Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	rc := pipeline.NewRequestContext(request.Question, request.SessionId, request.UserId)
	if s.historyStore != nil {
		rc.WithHistory(s.historyStore)
	}

	out, err := s.runner.Run(ctx, rc)
	if err != nil {
		return nil, err
	}

	chatId := uuid.New()
	s.persist(ctx, chatId, out)
	s.publish(ctx, chatId, out)

	return &dto.ChatResponse{
		Response:  out.Response,
		Reasoning: out.Reasoning,
		ChatId:    chatId,
		Images:    out.Images,
	}, nil
}

// persist failures are logged; the user already has their answer.
func (s *chatService) persist(ctx context.Context, chatId uuid.UUID, rc *pipeline.RequestContext) {
	if s.uowFactory == nil {
		return
	}

	images, err := json.Marshal(rc.Images)
	if err != nil {
		images = []byte("[]")
	}

	record := &model.ChatRecord{
		Id:                 chatId,
		UserId:             rc.UserID,
		SessionId:          rc.SessionID,
		Question:           rc.Question,
		Response:           rc.Response,
		Reasoning:          rc.Reasoning,
		ContextText:        rc.ContextText,
		ImageUrls:          datatypes.JSON(images),
		ReasoningProvider:  rc.ReasoningProvider,
		GenerationProvider: rc.GenerationProvider,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatRecordRepository().Create(ctx, record); err != nil {
		s.logger.Error("chat", "Failed to persist chat record", map[string]interface{}{
			"chat_id":    chatId.String(),
			"session_id": rc.SessionID,
			"error":      err,
		})
	}
}

func (s *chatService) publish(ctx context.Context, chatId uuid.UUID, rc *pipeline.RequestContext) {
	if s.events == nil {
		return
	}

	evt := events.ChatCompleted{
		ChatID:             chatId.String(),
		SessionID:          rc.SessionID,
		UserID:             rc.UserID,
		ReasoningProvider:  rc.ReasoningProvider,
		GenerationProvider: rc.GenerationProvider,
		ImageCount:         len(rc.Images),
		OccurredAt:         time.Now(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("chat", "Failed to publish chat event", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err,
		})
	}
}

func (s *chatService) GetHistory(ctx context.Context, sessionId string) (*dto.GetHistoryResponse, error) {
	h, err := s.historyStore.History(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	msgs, err := h.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	res := &dto.GetHistoryResponse{
		SessionId: sessionId,
		Messages:  make([]dto.HistoryMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		res.Messages = append(res.Messages, dto.HistoryMessage{Role: m.Role, Content: m.Content})
	}
	return res, nil
}

func (s *chatService) ClearHistory(ctx context.Context, sessionId string) error {
	h, err := s.historyStore.History(ctx, sessionId)
	if err != nil {
		return err
	}
	if err := h.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.logger.Info("chat", "History cleared", map[string]interface{}{"session_id": sessionId})
	return nil
}

func (s *chatService) GetRecords(ctx context.Context, sessionId string, limit, offset int) (*dto.ChatRecordListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	res := &dto.ChatRecordListResponse{
		SessionId: sessionId,
		Limit:     limit,
		Offset:    offset,
		Records:   []*dto.ChatRecordResponse{},
	}
	if s.uowFactory == nil {
		return res, nil
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ChatRecordRepository()
	bySession := specification.BySessionID{SessionID: sessionId}

	total, err := repo.Count(ctx, bySession)
	if err != nil {
		return nil, err
	}
	res.Total = total

	records, err := repo.FindAll(ctx,
		bySession,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		res.Records = append(res.Records, toChatRecordResponse(r))
	}
	return res, nil
}

func (s *chatService) GetRecord(ctx context.Context, chatId uuid.UUID) (*dto.ChatRecordResponse, error) {
	if s.uowFactory == nil {
		return nil, ErrChatNotFound
	}

	records, err := s.uowFactory.NewUnitOfWork(ctx).ChatRecordRepository().FindAll(ctx,
		specification.ByID{ID: chatId},
		specification.Pagination{Limit: 1},
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrChatNotFound
	}
	return toChatRecordResponse(records[0]), nil
}

func toChatRecordResponse(r *model.ChatRecord) *dto.ChatRecordResponse {
	return &dto.ChatRecordResponse{
		Id:                 r.Id,
		SessionId:          r.SessionId,
		Question:           r.Question,
		Response:           r.Response,
		Reasoning:          r.Reasoning,
		ReasoningProvider:  r.ReasoningProvider,
		GenerationProvider: r.GenerationProvider,
		CreatedAt:          r.CreatedAt,
	}
}
