package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"rag-chat-be/pkg/llm"
)

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Search(ctx context.Context, question string, topK int) (RetrievalResult, error) {
	args := m.Called(ctx, question, topK)
	return args.Get(0).(RetrievalResult), args.Error(1)
}

// scriptedModel answers every call with reply or err and records prompts.
type scriptedModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]llm.Message
}

func (m *scriptedModel) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]llm.Message(nil), history...))
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *scriptedModel) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return m.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// staticModels serves fixed reasoning and generation models under the
// "static" tag.
type staticModels struct {
	reasoning  llm.LLMProvider
	generation llm.LLMProvider
	err        error
}

const staticTag = "static"

func (s *staticModels) ReasoningModel(context.Context, string) (llm.LLMProvider, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.reasoning, staticTag, nil
}

func (s *staticModels) GenerationModel(context.Context, string) (llm.LLMProvider, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.generation, staticTag, nil
}

// recordingStage appends its name to a shared trace.
type recordingStage struct {
	name  string
	trace *[]string
	err   error
}

func (s *recordingStage) Name() string { return s.name }

func (s *recordingStage) Run(_ context.Context, rc *RequestContext) (*RequestContext, error) {
	*s.trace = append(*s.trace, s.name)
	if s.err != nil {
		return nil, s.err
	}
	return rc, nil
}
