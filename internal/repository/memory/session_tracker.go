package memory

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionTracker is the in-process counterpart of the Redis tracker.
type SessionTracker struct {
	cache   *cache.Cache
	timeout time.Duration
}

func NewSessionTracker(timeout time.Duration) *SessionTracker {
	return &SessionTracker{cache: cache.New(timeout, time.Minute), timeout: timeout}
}

func (t *SessionTracker) Touch(_ context.Context, userID string) error {
	t.cache.Set(userID, struct{}{}, t.timeout)
	return nil
}

func (t *SessionTracker) Active(_ context.Context, userID string) (bool, error) {
	_, found := t.cache.Get(userID)
	return found, nil
}

func (t *SessionTracker) End(_ context.Context, userID string) error {
	t.cache.Delete(userID)
	return nil
}

func (t *SessionTracker) ActiveUsers(_ context.Context) ([]string, error) {
	items := t.cache.Items()
	users := make([]string, 0, len(items))
	for id := range items {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
