package redisstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "user_session:"

// SessionTracker marks users active with a user_session:<id> key that
// expires after timeout of inactivity.
type SessionTracker struct {
	rdb     redis.UniversalClient
	timeout time.Duration
}

func NewSessionTracker(rdb redis.UniversalClient, timeout time.Duration) *SessionTracker {
	return &SessionTracker{rdb: rdb, timeout: timeout}
}

// Touch starts or refreshes the user's session.
func (t *SessionTracker) Touch(ctx context.Context, userID string) error {
	if err := t.rdb.Set(ctx, sessionKeyPrefix+userID, "active", t.timeout).Err(); err != nil {
		return fmt.Errorf("set session %s: %w", userID, err)
	}
	return nil
}

func (t *SessionTracker) Active(ctx context.Context, userID string) (bool, error) {
	n, err := t.rdb.Exists(ctx, sessionKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("check session %s: %w", userID, err)
	}
	return n > 0, nil
}

func (t *SessionTracker) End(ctx context.Context, userID string) error {
	if err := t.rdb.Del(ctx, sessionKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("end session %s: %w", userID, err)
	}
	return nil
}

// ActiveUsers scans for live session keys.
func (t *SessionTracker) ActiveUsers(ctx context.Context) ([]string, error) {
	users := []string{}
	iter := t.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		users = append(users, strings.TrimPrefix(iter.Val(), sessionKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	sort.Strings(users)
	return users, nil
}
