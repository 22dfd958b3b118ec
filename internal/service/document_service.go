package service

import (
	"context"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
)

type IDocumentService interface {
	// ListChunks pages through the stored chunks of one source document.
	ListChunks(ctx context.Context, source string, limit, offset int) (*dto.DocumentChunksResponse, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory) IDocumentService {
	return &documentService{uowFactory: uowFactory}
}

func (s *documentService) ListChunks(ctx context.Context, source string, limit, offset int) (*dto.DocumentChunksResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).DocumentEmbeddingRepository()
	bySource := specification.BySource{Source: source}

	total, err := repo.Count(ctx, bySource)
	if err != nil {
		return nil, err
	}

	chunks, err := repo.FindAll(ctx,
		bySource,
		specification.OrderBy{Field: "chunk_index"},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.DocumentChunksResponse{
		Source: source,
		Total:  total,
		Limit:  limit,
		Offset: offset,
		Chunks: make([]dto.DocumentChunk, 0, len(chunks)),
	}
	for _, c := range chunks {
		res.Chunks = append(res.Chunks, dto.DocumentChunk{
			Id:         c.Id,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			ImagePath:  c.ImagePath,
			CreatedAt:  c.CreatedAt,
		})
	}
	return res, nil
}
