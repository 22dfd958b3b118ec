package pipeline

import (
	"rag-chat-be/pkg/rag/history"
)

// RequestContext is the record threaded through every stage of one run.
// Question, SessionID and UserID are fixed at construction; each stage
// writes only its own output fields.
type RequestContext struct {
	Question  string
	SessionID string
	UserID    string

	// HistoryHandler, when set, makes Generate read and extend the
	// session's conversation log.
	HistoryHandler history.Store
	// History is the log Generate used, if any.
	History history.History

	ContextText string
	Images      []string
	Reasoning   string
	Response    string

	// ReasoningProvider and GenerationProvider name the backends that
	// actually produced Reasoning and Response.
	ReasoningProvider  string
	GenerationProvider string

	Extra map[string]any
}

func NewRequestContext(question, sessionID, userID string) *RequestContext {
	return &RequestContext{
		Question:  question,
		SessionID: sessionID,
		UserID:    userID,
		Images:    []string{},
		Extra:     make(map[string]any),
	}
}

// WithHistory attaches a history store and returns rc.
func (rc *RequestContext) WithHistory(store history.Store) *RequestContext {
	rc.HistoryHandler = store
	return rc
}
