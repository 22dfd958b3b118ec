package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/repository/memory"
	"rag-chat-be/pkg/apperror"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/override"
)

type stubModel struct {
	provider string
	purpose  llm.Purpose
}

func (s *stubModel) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return s.provider, nil
}

func (s *stubModel) Generate(context.Context, string, ...llm.Option) (string, error) {
	return s.provider, nil
}

type buildSpy struct {
	mu    sync.Mutex
	calls []cacheKey
	count atomic.Int32
	err   error
}

func (b *buildSpy) build(provider string, purpose llm.Purpose) (llm.LLMProvider, error) {
	b.count.Add(1)
	b.mu.Lock()
	b.calls = append(b.calls, cacheKey{provider: provider, purpose: purpose})
	b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return &stubModel{provider: provider, purpose: purpose}, nil
}

type mockOverrides struct {
	mock.Mock
}

func (m *mockOverrides) Get(ctx context.Context, sessionID string) (override.Record, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(override.Record), args.Error(1)
}

var defaults = Selection{ReasoningProvider: "gemini", GenerationProvider: "gemini"}

func newTestResolver(t *testing.T, opts ...Option) (*Resolver, *override.Store, *buildSpy) {
	t.Helper()
	store := override.NewStore(memory.NewTTLCache(time.Hour, time.Hour), time.Hour)
	spy := &buildSpy{}
	return NewResolver(defaults, store, spy.build, opts...), store, spy
}

func TestResolveSelectionWithoutOverride(t *testing.T) {
	r, _, _ := newTestResolver(t)

	for _, session := range []string{"", "s1", "s2"} {
		sel, err := r.ResolveSelection(context.Background(), session)
		require.NoError(t, err)
		assert.Equal(t, defaults, sel)
	}
}

func TestResolveSelectionPartialOverride(t *testing.T) {
	ctx := context.Background()
	r, store, _ := newTestResolver(t)

	_, err := store.Set(ctx, "s1", "Qwen", "")
	require.NoError(t, err)

	sel, err := r.ResolveSelection(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Selection{ReasoningProvider: "qwen", GenerationProvider: "gemini"}, sel)

	// other sessions are unaffected
	sel, err = r.ResolveSelection(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, defaults, sel)
}

func TestResolveSelectionAfterClear(t *testing.T) {
	ctx := context.Background()
	r, store, _ := newTestResolver(t)

	_, err := store.Set(ctx, "s1", "qwen", "qwen")
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "s1"))

	sel, err := r.ResolveSelection(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, defaults, sel)
}

func TestModelHandleIsCached(t *testing.T) {
	ctx := context.Background()
	r, _, spy := newTestResolver(t)

	first, _, err := r.ReasoningModel(ctx, "s1")
	require.NoError(t, err)
	second, _, err := r.ReasoningModel(ctx, "s2")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), spy.count.Load())

	// same provider, different purpose is a separate handle
	gen, _, err := r.GenerationModel(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, first, gen)
	assert.Equal(t, int32(2), spy.count.Load())
	assert.Equal(t, 2, r.CachedCount())
}

func TestModelFollowsOverride(t *testing.T) {
	ctx := context.Background()
	r, store, spy := newTestResolver(t)

	_, err := store.Set(ctx, "s1", "", "qwen")
	require.NoError(t, err)

	m, _, err := r.GenerationModel(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "qwen", m.(*stubModel).provider)
	assert.Equal(t, []cacheKey{{provider: "qwen", purpose: llm.PurposeGeneration}}, spy.calls)
}

func TestConcurrentFirstUseBuildsOnce(t *testing.T) {
	r, _, _ := newTestResolver(t)

	var builds atomic.Int32
	release := make(chan struct{})
	r.build = func(provider string, purpose llm.Purpose) (llm.LLMProvider, error) {
		builds.Add(1)
		<-release
		return &stubModel{provider: provider, purpose: purpose}, nil
	}

	var wg sync.WaitGroup
	results := make([]llm.LLMProvider, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, _, err := r.ReasoningModel(context.Background(), "")
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestBuildErrorIsNotCached(t *testing.T) {
	r, _, spy := newTestResolver(t)
	spy.err = apperror.NewConfigError("GOOGLE_API_KEY", "missing")

	_, _, err := r.ReasoningModel(context.Background(), "")
	assert.True(t, apperror.IsConfig(err))
	assert.Equal(t, 0, r.CachedCount())

	spy.err = nil
	_, _, err = r.ReasoningModel(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), spy.count.Load())
}

func TestInvalidateAndReset(t *testing.T) {
	ctx := context.Background()
	r, store, spy := newTestResolver(t)

	_, err := store.Set(ctx, "s1", "qwen", "")
	require.NoError(t, err)

	_, _, err = r.ReasoningModel(ctx, "s1")
	require.NoError(t, err)
	_, _, err = r.GenerationModel(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.CachedCount())

	r.Invalidate("QWEN")
	assert.Equal(t, 1, r.CachedCount())

	_, _, err = r.ReasoningModel(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), spy.count.Load())

	r.Reset()
	assert.Equal(t, 0, r.CachedCount())
}

func TestOverrideFailureFailsFast(t *testing.T) {
	backendErr := errors.New("redis: connection refused")
	overrides := new(mockOverrides)
	overrides.On("Get", mock.Anything, "s1").Return(override.Record{}, backendErr)

	spy := &buildSpy{}
	r := NewResolver(defaults, overrides, spy.build)

	_, err := r.ResolveSelection(context.Background(), "s1")
	assert.ErrorIs(t, err, backendErr)

	_, _, err = r.GenerationModel(context.Background(), "s1")
	assert.ErrorIs(t, err, backendErr)
	assert.Equal(t, int32(0), spy.count.Load())
	overrides.AssertExpectations(t)
}

func TestOverrideFailureFailOpen(t *testing.T) {
	overrides := new(mockOverrides)
	overrides.On("Get", mock.Anything, "s1").Return(override.Record{}, errors.New("timeout"))

	spy := &buildSpy{}
	r := NewResolver(defaults, overrides, spy.build, WithFailOpen())

	sel, err := r.ResolveSelection(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, defaults, sel)
}
