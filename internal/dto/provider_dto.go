package dto

type SetProvidersRequest struct {
	ReasoningProvider  string `json:"reasoning_provider" validate:"omitempty,oneof=gemini qwen ollama"`
	GenerationProvider string `json:"generation_provider" validate:"omitempty,oneof=gemini qwen ollama"`
}

type ProvidersResponse struct {
	SessionId          string            `json:"session_id"`
	ReasoningProvider  string            `json:"reasoning_provider"`
	GenerationProvider string            `json:"generation_provider"`
	Override           *ProviderOverride `json:"override,omitempty"`
	TTLSeconds         int               `json:"ttl_seconds"`
	Available          []string          `json:"available_providers"`
}

type ProviderOverride struct {
	ReasoningProvider  string `json:"reasoning_provider,omitempty"`
	GenerationProvider string `json:"generation_provider,omitempty"`
}
