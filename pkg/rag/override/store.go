package override

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTTL is how long an override lives when no TTL is configured.
const DefaultTTL = 1800 * time.Second

const keyPrefix = "provider_override:"

// Record is a session-scoped replacement of the default provider selection.
// Empty fields mean "not overridden".
type Record struct {
	ReasoningProvider  string `json:"reasoning_provider,omitempty"`
	GenerationProvider string `json:"generation_provider,omitempty"`
}

// IsEmpty reports whether the record overrides nothing.
func (r Record) IsEmpty() bool {
	return r.ReasoningProvider == "" && r.GenerationProvider == ""
}

// Cache is the TTL key-value backend the store sits on. Get reports absence
// with found=false and a nil error; every other failure is an error.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Delete(ctx context.Context, key string) error
}

// Store keeps per-session provider overrides in a Cache.
type Store struct {
	cache Cache
	ttl   time.Duration
}

func NewStore(cache Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: cache, ttl: ttl}
}

// TTL returns the lifetime applied on every Set.
func (s *Store) TTL() time.Duration { return s.ttl }

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Set replaces the session's record wholesale and restarts its TTL. Callers
// wanting a partial update must Get first and merge.
func (s *Store) Set(ctx context.Context, sessionID, reasoning, generation string) (Record, error) {
	rec := Record{ReasoningProvider: reasoning, GenerationProvider: generation}
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode override: %w", err)
	}
	if err := s.cache.Set(ctx, key(sessionID), data, s.ttl); err != nil {
		return Record{}, fmt.Errorf("store override for session %s: %w", sessionID, err)
	}
	return rec, nil
}

// Get returns the active record. A missing or expired record is the zero
// Record with a nil error.
func (s *Store) Get(ctx context.Context, sessionID string) (Record, error) {
	data, found, err := s.cache.Get(ctx, key(sessionID))
	if err != nil {
		return Record{}, fmt.Errorf("load override for session %s: %w", sessionID, err)
	}
	if !found {
		return Record{}, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode override for session %s: %w", sessionID, err)
	}
	return rec, nil
}

// Clear deletes the session's record. Deleting nothing is not an error.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, key(sessionID)); err != nil {
		return fmt.Errorf("clear override for session %s: %w", sessionID, err)
	}
	return nil
}
