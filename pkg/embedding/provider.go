package embedding

import (
	"context"
	"math"

	"rag-chat-be/internal/config"
	"rag-chat-be/pkg/apperror"
)

// Task types understood by Gemini; other backends ignore them.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Dimensions is the vector width stored in document_embeddings.
const Dimensions = 768

// EmbeddingProvider turns text into a unit-length vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// New builds the provider selected by EMBEDDING_PROVIDER.
func New(cfg config.AIConfig) (EmbeddingProvider, error) {
	switch cfg.EmbeddingProvider {
	case "gemini", "":
		if cfg.GoogleAPIKey == "" {
			return nil, apperror.NewConfigError("GOOGLE_API_KEY", "required for gemini embeddings")
		}
		return NewGeminiProvider(cfg.GoogleAPIKey, cfg.GoogleBaseURL, cfg.GoogleEmbeddingModel), nil
	case "ollama":
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaEmbeddingModel), nil
	default:
		return nil, apperror.NewConfigError(cfg.EmbeddingProvider, "unsupported embedding provider")
	}
}

// normalizeVector scales vec to unit length so pgvector cosine distance
// behaves; a zero vector is returned as is.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
