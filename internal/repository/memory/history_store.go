package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/history"
)

// HistoryStore keeps conversations in process memory. Each session's log
// expires ttl after its last append.
type HistoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
	limit int
	now   func() time.Time
}

var _ history.Store = (*HistoryStore)(nil)

func NewHistoryStore(ttl time.Duration, limit int) *HistoryStore {
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	return &HistoryStore{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
		limit: limit,
		now:   time.Now,
	}
}

func (s *HistoryStore) History(_ context.Context, sessionID string) (history.History, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("history: session id is required")
	}
	return &memoryHistory{store: s, sessionID: sessionID}, nil
}

type memoryHistory struct {
	store     *HistoryStore
	sessionID string
}

func (h *memoryHistory) entries() []history.Entry {
	if x, found := h.store.cache.Get(h.sessionID); found {
		return x.([]history.Entry)
	}
	return nil
}

func (h *memoryHistory) Messages(_ context.Context) ([]llm.Message, error) {
	h.store.mu.Lock()
	entries := h.entries()
	h.store.mu.Unlock()

	if len(entries) > h.store.limit {
		entries = entries[len(entries)-h.store.limit:]
	}
	out := make([]llm.Message, len(entries))
	for i, e := range entries {
		out[i] = e.Message()
	}
	return out, nil
}

func (h *memoryHistory) AddMessage(_ context.Context, msg llm.Message) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	prev := h.entries()
	next := make([]history.Entry, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, history.NewEntry(msg, h.store.now()))
	h.store.cache.Set(h.sessionID, next, h.store.ttl)
	return nil
}

func (h *memoryHistory) Clear(_ context.Context) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	h.store.cache.Delete(h.sessionID)
	return nil
}
