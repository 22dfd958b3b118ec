package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	Question  string `json:"question" validate:"required,notblank,max=4000"`
	SessionId string `json:"session_id" validate:"required,max=255"`
	UserId    string `json:"user_id" validate:"required,max=255"`
}

type ChatResponse struct {
	Response  string    `json:"response"`
	Reasoning string    `json:"reasoning"`
	ChatId    uuid.UUID `json:"chat_id"`
	Images    []string  `json:"images"`
}

type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GetHistoryResponse struct {
	SessionId string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
}

type ChatRecordResponse struct {
	Id                 uuid.UUID `json:"id"`
	SessionId          string    `json:"session_id"`
	Question           string    `json:"question"`
	Response           string    `json:"response"`
	Reasoning          string    `json:"reasoning"`
	ReasoningProvider  string    `json:"reasoning_provider"`
	GenerationProvider string    `json:"generation_provider"`
	CreatedAt          time.Time `json:"created_at"`
}

type ChatRecordListResponse struct {
	SessionId string                `json:"session_id"`
	Total     int64                 `json:"total"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	Records   []*ChatRecordResponse `json:"records"`
}
