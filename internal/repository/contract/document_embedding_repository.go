package contract

import (
	"context"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/specification"
)

// ScoredDocumentEmbedding pairs a chunk with its cosine similarity.
type ScoredDocumentEmbedding struct {
	Embedding  *model.DocumentEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*model.DocumentEmbedding) error
	DeleteBySource(ctx context.Context, source string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.DocumentEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns the limit closest chunks by cosine distance.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocumentEmbedding, error)
}
