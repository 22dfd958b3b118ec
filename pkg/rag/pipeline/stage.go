package pipeline

import (
	"context"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/llm"
)

// Stage is one named transformation of the request context. Stages carry
// only construction-time configuration and may be reused across runs.
type Stage interface {
	Name() string
	Run(ctx context.Context, rc *RequestContext) (*RequestContext, error)
}

// RetrievalResult is what a Retriever found for a question. Each entry of
// ImagePaths may hold several newline separated paths.
type RetrievalResult struct {
	Context    string   `json:"context"`
	ImagePaths []string `json:"image_paths"`
}

type Retriever interface {
	Search(ctx context.Context, question string, topK int) (RetrievalResult, error)
}

// ModelSource hands out the model serving each purpose for a session,
// together with the provider tag that model was built for.
type ModelSource interface {
	ReasoningModel(ctx context.Context, sessionID string) (llm.LLMProvider, string, error)
	GenerationModel(ctx context.Context, sessionID string) (llm.LLMProvider, string, error)
}

// Dependencies are the collaborators stage constructors draw from.
type Dependencies struct {
	Retriever Retriever
	Models    ModelSource
	Logger    logger.ILogger
}

func (d Dependencies) logger() logger.ILogger {
	if d.Logger == nil {
		return logger.NewNopLogger()
	}
	return d.Logger
}
