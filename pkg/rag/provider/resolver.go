package provider

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/override"
)

// Selection is the effective provider choice for one request.
type Selection struct {
	ReasoningProvider  string `json:"reasoning_provider"`
	GenerationProvider string `json:"generation_provider"`
}

// For returns the provider tag serving purpose.
func (s Selection) For(purpose llm.Purpose) string {
	if purpose == llm.PurposeReasoning {
		return s.ReasoningProvider
	}
	return s.GenerationProvider
}

// OverrideSource looks up a session's override record.
type OverrideSource interface {
	Get(ctx context.Context, sessionID string) (override.Record, error)
}

// BuildFunc constructs a model handle. It is called at most once per
// (provider, purpose) between invalidations.
type BuildFunc func(provider string, purpose llm.Purpose) (llm.LLMProvider, error)

type cacheKey struct {
	provider string
	purpose  llm.Purpose
}

func (k cacheKey) String() string { return k.provider + "|" + string(k.purpose) }

// Resolver merges process defaults with session overrides and hands out
// cached model handles.
type Resolver struct {
	defaults  Selection
	overrides OverrideSource
	build     BuildFunc
	logger    logger.ILogger
	failOpen  bool

	mu     sync.RWMutex
	models map[cacheKey]llm.LLMProvider
	group  singleflight.Group
}

type Option func(*Resolver)

// WithFailOpen makes override lookup failures degrade to the defaults
// instead of failing the request.
func WithFailOpen() Option {
	return func(r *Resolver) { r.failOpen = true }
}

func WithLogger(l logger.ILogger) Option {
	return func(r *Resolver) { r.logger = l }
}

func NewResolver(defaults Selection, overrides OverrideSource, build BuildFunc, opts ...Option) *Resolver {
	r := &Resolver{
		defaults: Selection{
			ReasoningProvider:  normalize(defaults.ReasoningProvider),
			GenerationProvider: normalize(defaults.GenerationProvider),
		},
		overrides: overrides,
		build:     build,
		logger:    logger.NewNopLogger(),
		models:    make(map[cacheKey]llm.LLMProvider),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Defaults returns the process-wide selection.
func (r *Resolver) Defaults() Selection { return r.defaults }

// ResolveSelection starts from the defaults and replaces each field the
// session override sets. An empty session id skips the override lookup.
func (r *Resolver) ResolveSelection(ctx context.Context, sessionID string) (Selection, error) {
	sel := r.defaults
	if sessionID == "" || r.overrides == nil {
		return sel, nil
	}

	rec, err := r.overrides.Get(ctx, sessionID)
	if err != nil {
		if !r.failOpen {
			return Selection{}, err
		}
		r.logger.Warn("provider", "Override lookup failed, using defaults", map[string]interface{}{
			"session_id": sessionID,
			"error":      err,
		})
		return sel, nil
	}

	if v := normalize(rec.ReasoningProvider); v != "" {
		sel.ReasoningProvider = v
	}
	if v := normalize(rec.GenerationProvider); v != "" {
		sel.GenerationProvider = v
	}
	return sel, nil
}

// ReasoningModel returns the reasoning model for the session and the
// provider tag it was built for.
func (r *Resolver) ReasoningModel(ctx context.Context, sessionID string) (llm.LLMProvider, string, error) {
	return r.Model(ctx, sessionID, llm.PurposeReasoning)
}

// GenerationModel returns the generation model for the session and the
// provider tag it was built for.
func (r *Resolver) GenerationModel(ctx context.Context, sessionID string) (llm.LLMProvider, string, error) {
	return r.Model(ctx, sessionID, llm.PurposeGeneration)
}

func (r *Resolver) Model(ctx context.Context, sessionID string, purpose llm.Purpose) (llm.LLMProvider, string, error) {
	sel, err := r.ResolveSelection(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	tag := sel.For(purpose)
	m, err := r.cached(cacheKey{provider: tag, purpose: purpose})
	if err != nil {
		return nil, "", err
	}
	return m, tag, nil
}

func (r *Resolver) cached(key cacheKey) (llm.LLMProvider, error) {
	r.mu.RLock()
	m, ok := r.models[key]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		r.mu.RLock()
		m, ok := r.models[key]
		r.mu.RUnlock()
		if ok {
			return m, nil
		}

		built, err := r.build(key.provider, key.purpose)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.models[key] = built
		r.mu.Unlock()

		r.logger.Info("provider", "Model handle created", map[string]interface{}{
			"provider": key.provider,
			"purpose":  string(key.purpose),
		})
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(llm.LLMProvider), nil
}

// Invalidate drops every cached handle built for provider, e.g. after a
// credential rotation.
func (r *Resolver) Invalidate(provider string) {
	provider = normalize(provider)
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.models {
		if k.provider == provider {
			delete(r.models, k)
		}
	}
}

// Reset drops every cached handle.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = make(map[cacheKey]llm.LLMProvider)
}

// CachedCount reports how many handles are currently cached.
func (r *Resolver) CachedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
