package history

import (
	"context"
	"time"

	"rag-chat-be/pkg/llm"
)

// DefaultLimit caps how many prior messages are fed back to the model.
const DefaultLimit = 50

// History is the live conversation log of one session.
type History interface {
	// Messages returns prior turns, oldest first.
	Messages(ctx context.Context) ([]llm.Message, error)
	AddMessage(ctx context.Context, msg llm.Message) error
	Clear(ctx context.Context) error
}

// Store hands out the History for a session id.
type Store interface {
	History(ctx context.Context, sessionID string) (History, error)
}

// Entry is the persisted form of one message.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry stamps msg with now. Anything that is not an assistant turn is
// recorded as a user turn.
func NewEntry(msg llm.Message, now time.Time) Entry {
	role := llm.RoleUser
	if msg.Role == llm.RoleAssistant || msg.Role == "model" {
		role = llm.RoleAssistant
	}
	return Entry{Role: role, Content: msg.Content, Timestamp: now}
}

func (e Entry) Message() llm.Message {
	role := llm.RoleUser
	if e.Role == llm.RoleAssistant {
		role = llm.RoleAssistant
	}
	return llm.Message{Role: role, Content: e.Content}
}
