package search

import (
	"context"
	"fmt"
	"strings"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/rag/pipeline"
)

// Retriever answers a question with the closest document chunks from the
// pgvector store.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	repo     contract.DocumentEmbeddingRepository
	logger   logger.ILogger
}

var _ pipeline.Retriever = (*Retriever)(nil)

func NewRetriever(embedder embedding.EmbeddingProvider, repo contract.DocumentEmbeddingRepository, log logger.ILogger) *Retriever {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Retriever{embedder: embedder, repo: repo, logger: log}
}

// Search embeds question and joins the topK nearest chunks into one context
// blob. Image paths come from the chunks that carry one.
func (r *Retriever) Search(ctx context.Context, question string, topK int) (pipeline.RetrievalResult, error) {
	vec, err := r.embedder.Embed(ctx, question, embedding.TaskRetrievalQuery)
	if err != nil {
		return pipeline.RetrievalResult{}, fmt.Errorf("embedding generation failed: %w", err)
	}

	scored, err := r.repo.SearchSimilar(ctx, vec, topK)
	if err != nil {
		return pipeline.RetrievalResult{}, fmt.Errorf("vector search failed: %w", err)
	}

	contents := make([]string, 0, len(scored))
	images := make([]string, 0)
	for _, s := range scored {
		contents = append(contents, s.Embedding.Content)
		if s.Embedding.ImagePath != "" {
			images = append(images, s.Embedding.ImagePath)
		}
	}

	r.logger.Debug("search", "Vector search completed", map[string]interface{}{
		"top_k":   topK,
		"results": len(scored),
		"images":  len(images),
	})

	return pipeline.RetrievalResult{
		Context:    strings.Join(contents, "\n"),
		ImagePaths: images,
	}, nil
}
