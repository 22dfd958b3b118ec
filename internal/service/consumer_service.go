package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pgvector/pgvector-go"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/utils"
)

const (
	chunkSize    = 1500
	chunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	// Ingest chunks, embeds and stores one document, replacing any chunks
	// previously stored for the same source.
	Ingest(ctx context.Context, payload dto.PublishIngestDocumentMessage) (int, error)
}

type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ingest", "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		// invalid payloads would never succeed
		msg.Ack()
		return
	}

	chunks, err := cs.Ingest(ctx, payload)
	if err != nil {
		cs.logger.Error("ingest", "Document ingestion failed", map[string]interface{}{
			"source": payload.Source,
			"error":  err,
		})
		msg.Nack()
		return
	}

	cs.logger.Info("ingest", "Document processed", map[string]interface{}{
		"source": payload.Source,
		"chunks": chunks,
	})
	msg.Ack()
}

func (cs *consumerService) Ingest(ctx context.Context, payload dto.PublishIngestDocumentMessage) (int, error) {
	if strings.TrimSpace(payload.Source) == "" {
		return 0, fmt.Errorf("document source is required")
	}

	chunks := utils.SplitText(payload.Content, chunkSize, chunkOverlap)
	imagePath := strings.Join(payload.ImagePaths, "\n")

	embeddings := make([]*model.DocumentEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		vec, err := cs.embeddingProvider.Embed(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", i, payload.Source, err)
		}
		doc := &model.DocumentEmbedding{
			Source:         payload.Source,
			ChunkIndex:     i,
			Content:        chunk,
			EmbeddingValue: pgvector.NewVector(vec),
		}
		// images belong to the document, attach them once
		if i == 0 {
			doc.ImagePath = imagePath
		}
		embeddings = append(embeddings, doc)
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	if err := uow.DocumentEmbeddingRepository().DeleteBySource(ctx, payload.Source); err != nil {
		_ = uow.Rollback()
		return 0, fmt.Errorf("delete old chunks: %w", err)
	}
	if err := uow.DocumentEmbeddingRepository().CreateBulk(ctx, embeddings); err != nil {
		_ = uow.Rollback()
		return 0, fmt.Errorf("create chunks: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(embeddings), nil
}
