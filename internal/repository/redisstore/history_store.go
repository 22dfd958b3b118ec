package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/history"
)

const messageKeyPrefix = "chat_messages:"

// HistoryStore keeps each session's conversation as a Redis list of JSON
// entries. Every append refreshes the list's TTL.
type HistoryStore struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	limit  int
	logger logger.ILogger
	now    func() time.Time
}

var _ history.Store = (*HistoryStore)(nil)

func NewHistoryStore(rdb redis.UniversalClient, ttl time.Duration, limit int, log logger.ILogger) *HistoryStore {
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	return &HistoryStore{rdb: rdb, ttl: ttl, limit: limit, logger: log, now: time.Now}
}

func (s *HistoryStore) History(_ context.Context, sessionID string) (history.History, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("history: session id is required")
	}
	return &redisHistory{store: s, key: messageKeyPrefix + sessionID}, nil
}

type redisHistory struct {
	store *HistoryStore
	key   string
}

func (h *redisHistory) Messages(ctx context.Context) ([]llm.Message, error) {
	raw, err := h.store.rdb.LRange(ctx, h.key, int64(-h.store.limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", h.key, err)
	}

	messages := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var entry history.Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			h.store.logger.Warn("history", "Skipping malformed history entry", map[string]interface{}{
				"key":   h.key,
				"error": err,
			})
			continue
		}
		messages = append(messages, entry.Message())
	}
	return messages, nil
}

func (h *redisHistory) AddMessage(ctx context.Context, msg llm.Message) error {
	data, err := json.Marshal(history.NewEntry(msg, h.store.now()))
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	pipe := h.store.rdb.TxPipeline()
	pipe.RPush(ctx, h.key, data)
	if h.store.ttl > 0 {
		pipe.Expire(ctx, h.key, h.store.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history %s: %w", h.key, err)
	}
	return nil
}

func (h *redisHistory) Clear(ctx context.Context) error {
	if err := h.store.rdb.Del(ctx, h.key).Err(); err != nil {
		return fmt.Errorf("clear history %s: %w", h.key, err)
	}
	return nil
}
