package pipeline

import (
	"context"
	"fmt"

	"rag-chat-be/pkg/apperror"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/history"
)

const DefaultGenerationPrompt = `You are a friendly AI assistant. Use the provided context and
reasoning steps to craft a clear, helpful answer. If information is missing,
acknowledge it honestly.`

type GenerateOptions struct {
	SystemPrompt string `yaml:"system_prompt"`
	HistoryLimit int    `yaml:"history_limit"`
}

// Generate writes the final answer, threading session history when the
// context carries a history store.
type Generate struct {
	models ModelSource
	opts   GenerateOptions
}

func NewGenerate(models ModelSource, opts GenerateOptions) *Generate {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultGenerationPrompt
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = history.DefaultLimit
	}
	return &Generate{models: models, opts: opts}
}

func newGenerateFromConfig(deps Dependencies, cfg StageConfig) (Stage, error) {
	var opts GenerateOptions
	if err := decodeOptions(StageGeneration, cfg, &opts); err != nil {
		return nil, err
	}
	if deps.Models == nil {
		return nil, apperror.NewConfigError(StageGeneration, "no model source configured")
	}
	return NewGenerate(deps.Models, opts), nil
}

func (s *Generate) Name() string { return StageGeneration }

func (s *Generate) Run(ctx context.Context, rc *RequestContext) (*RequestContext, error) {
	model, tag, err := s.models.GenerationModel(ctx, rc.SessionID)
	if err != nil {
		return nil, modelLookupError(StageGeneration, err)
	}

	var (
		log   history.History
		prior []llm.Message
	)
	if rc.HistoryHandler != nil {
		log, err = rc.HistoryHandler.History(ctx, rc.SessionID)
		if err != nil {
			return nil, apperror.NewStageError(StageGeneration, fmt.Errorf("open history: %w", err))
		}
		prior, err = log.Messages(ctx)
		if err != nil {
			return nil, apperror.NewStageError(StageGeneration, fmt.Errorf("read history: %w", err))
		}
		if len(prior) > s.opts.HistoryLimit {
			prior = prior[len(prior)-s.opts.HistoryLimit:]
		}
	}

	messages := make([]llm.Message, 0, len(prior)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.opts.SystemPrompt})
	messages = append(messages, prior...)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nReasoning:\n%s", rc.Question, rc.ContextText, rc.Reasoning),
	})

	out, err := model.Chat(ctx, messages)
	if err != nil {
		return nil, apperror.NewStageError(StageGeneration, fmt.Errorf("generate response: %w", err))
	}

	if log != nil {
		if err := log.AddMessage(ctx, llm.Message{Role: llm.RoleUser, Content: rc.Question}); err != nil {
			return nil, apperror.NewStageError(StageGeneration, fmt.Errorf("append question: %w", err))
		}
		if err := log.AddMessage(ctx, llm.Message{Role: llm.RoleAssistant, Content: out}); err != nil {
			return nil, apperror.NewStageError(StageGeneration, fmt.Errorf("append answer: %w", err))
		}
		rc.History = log
	}

	rc.Response = out
	rc.GenerationProvider = tag
	return rc, nil
}
