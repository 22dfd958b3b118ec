package pipeline

import (
	"context"
	"fmt"

	"rag-chat-be/pkg/apperror"
	"rag-chat-be/pkg/llm"
)

const DefaultReasoningPrompt = `Goal: list the key evidence needed to answer the user's question as a concise bullet list.
Rules:
- Take evidence only from the provided context
- Leave out anything that does not directly help answer the question
- Write each item as a single sentence`

type ReasonOptions struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// Reason distills the retrieved context into question-relevant facts.
type Reason struct {
	models ModelSource
	opts   ReasonOptions
}

func NewReason(models ModelSource, opts ReasonOptions) *Reason {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultReasoningPrompt
	}
	return &Reason{models: models, opts: opts}
}

func newReasonFromConfig(deps Dependencies, cfg StageConfig) (Stage, error) {
	var opts ReasonOptions
	if err := decodeOptions(StageReasoning, cfg, &opts); err != nil {
		return nil, err
	}
	if deps.Models == nil {
		return nil, apperror.NewConfigError(StageReasoning, "no model source configured")
	}
	return NewReason(deps.Models, opts), nil
}

func (s *Reason) Name() string { return StageReasoning }

func (s *Reason) Run(ctx context.Context, rc *RequestContext) (*RequestContext, error) {
	model, tag, err := s.models.ReasoningModel(ctx, rc.SessionID)
	if err != nil {
		return nil, modelLookupError(StageReasoning, err)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: s.opts.SystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Question: %s\nContext:\n%s", rc.Question, rc.ContextText)},
	}

	out, err := model.Chat(ctx, messages)
	if err != nil {
		return nil, apperror.NewStageError(StageReasoning, fmt.Errorf("generate reasoning: %w", err))
	}
	rc.Reasoning = out
	rc.ReasoningProvider = tag
	return rc, nil
}

// modelLookupError keeps configuration errors as they are so callers can
// tell a misconfigured backend from a failed call.
func modelLookupError(stage string, err error) error {
	if apperror.IsConfig(err) {
		return err
	}
	return apperror.NewStageError(stage, fmt.Errorf("resolve model: %w", err))
}
