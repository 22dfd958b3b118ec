package events

import "time"

const TypeChatCompleted = "CHAT_COMPLETED"

// Event is anything published on the event bus.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// ChatCompleted is published after a chat answer has been produced.
type ChatCompleted struct {
	ChatID             string
	SessionID          string
	UserID             string
	ReasoningProvider  string
	GenerationProvider string
	ImageCount         int
	OccurredAt         time.Time
}

func (e ChatCompleted) EventType() string { return TypeChatCompleted }

func (e ChatCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"chat_id":             e.ChatID,
		"session_id":          e.SessionID,
		"user_id":             e.UserID,
		"reasoning_provider":  e.ReasoningProvider,
		"generation_provider": e.GenerationProvider,
		"image_count":         e.ImageCount,
		"occurred_at":         e.OccurredAt.Format(time.RFC3339),
	}
}

func (e ChatCompleted) Timestamp() time.Time { return e.OccurredAt }
