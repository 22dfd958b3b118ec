package factory

import (
	"fmt"
	"strings"

	"rag-chat-be/internal/config"
	"rag-chat-be/pkg/apperror"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/llm/gemini"
	"rag-chat-be/pkg/llm/ollama"
	"rag-chat-be/pkg/llm/openaicompat"
)

// Kind is the closed set of chat backends this service can build.
type Kind string

const (
	KindGemini Kind = "gemini"
	KindQwen   Kind = "qwen"
	KindOllama Kind = "ollama"
)

var kinds = []Kind{KindGemini, KindQwen, KindOllama}

// KindNames lists every supported backend tag as a string.
func KindNames() []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}

// ParseKind normalizes a provider tag. Unknown tags are configuration errors.
func ParseKind(tag string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(tag)))
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", apperror.NewConfigError(tag, "unsupported chat provider, expected one of: "+strings.Join(KindNames(), ", "))
}

// Factory builds chat backends from process configuration.
type Factory struct {
	cfg config.AIConfig
}

func New(cfg config.AIConfig) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) purposeConfig(purpose llm.Purpose) config.PurposeConfig {
	if purpose == llm.PurposeReasoning {
		return f.cfg.Reasoning
	}
	return f.cfg.Generation
}

// Build constructs a fresh backend for tag serving purpose. Missing required
// settings are reported before any network call is attempted.
func (f *Factory) Build(tag string, purpose llm.Purpose) (llm.LLMProvider, error) {
	if !purpose.Valid() {
		return nil, apperror.NewConfigError(string(purpose), "unknown model purpose")
	}
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, err
	}

	pc := f.purposeConfig(purpose)
	opts := []llm.Option{llm.WithTemperature(pc.Temperature)}
	if pc.MaxOutputTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(pc.MaxOutputTokens))
	}

	switch kind {
	case KindGemini:
		if f.cfg.GoogleAPIKey == "" {
			return nil, apperror.NewConfigError("GOOGLE_API_KEY", "must be set to use the gemini provider")
		}
		if f.cfg.GoogleChatModel == "" {
			return nil, apperror.NewConfigError("GOOGLE_CHAT_MODEL", "must not be empty")
		}
		return gemini.NewGeminiProvider(f.cfg.GoogleAPIKey, f.cfg.GoogleBaseURL, f.cfg.GoogleChatModel, opts...), nil

	case KindQwen:
		if f.cfg.QwenAPIKey == "" || f.cfg.QwenAPIBase == "" {
			return nil, apperror.NewConfigError("QWEN_API_KEY/QWEN_API_BASE", "must be set to use the qwen provider")
		}
		model := f.qwenModel(purpose)
		if model == "" {
			return nil, apperror.NewConfigError("QWEN_MODEL_NAME", "must not be empty")
		}
		return openaicompat.NewProvider(f.cfg.QwenAPIKey, f.cfg.QwenAPIBase, model, opts...), nil

	case KindOllama:
		if f.cfg.OllamaBaseURL == "" {
			return nil, apperror.NewConfigError("OLLAMA_BASE_URL", "must be set to use the ollama provider")
		}
		if f.cfg.OllamaModel == "" {
			return nil, apperror.NewConfigError("LLM_MODEL", "must not be empty")
		}
		return ollama.NewOllamaProvider(f.cfg.OllamaBaseURL, f.cfg.OllamaModel, opts...), nil
	}

	// unreachable while kinds and the switch agree
	return nil, apperror.NewConfigError(tag, fmt.Sprintf("no builder registered for %q", kind))
}

func (f *Factory) qwenModel(purpose llm.Purpose) string {
	switch purpose {
	case llm.PurposeReasoning:
		if f.cfg.QwenReasoningModel != "" {
			return f.cfg.QwenReasoningModel
		}
	case llm.PurposeGeneration:
		if f.cfg.QwenGenerationModel != "" {
			return f.cfg.QwenGenerationModel
		}
	}
	return f.cfg.QwenModel
}
