package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/embedding"
)

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	args := m.Called(ctx, text, taskType)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

func TestIngestReplacesSourceChunks(t *testing.T) {
	store := &fakeStore{}
	emb := new(mockEmbedder)
	emb.On("Embed", mock.Anything, mock.Anything, embedding.TaskRetrievalDocument).Return([]float32{1, 0}, nil)

	svc := NewConsumerService(nil, "INGEST_DOCUMENT", store, emb, logger.NewNopLogger())

	content := strings.Repeat("a", chunkSize+500)
	n, err := svc.Ingest(context.Background(), dto.PublishIngestDocumentMessage{
		Source:     "manual.pdf",
		Content:    content,
		ImagePaths: []string{"a.png", "b.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, store.documents, 2)
	assert.Equal(t, "a.png\nb.png", store.documents[0].ImagePath)
	assert.Empty(t, store.documents[1].ImagePath)
	assert.Equal(t, 1, store.documents[1].ChunkIndex)

	// re-ingesting the same source replaces its chunks
	n, err = svc.Ingest(context.Background(), dto.PublishIngestDocumentMessage{Source: "manual.pdf", Content: "short"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.documents, 1)
	assert.Equal(t, "short", store.documents[0].Content)
}

func TestIngestEmbeddingFailureWritesNothing(t *testing.T) {
	store := &fakeStore{}
	emb := new(mockEmbedder)
	emb.On("Embed", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

	svc := NewConsumerService(nil, "INGEST_DOCUMENT", store, emb, logger.NewNopLogger())
	_, err := svc.Ingest(context.Background(), dto.PublishIngestDocumentMessage{Source: "x", Content: "text"})
	require.Error(t, err)
	assert.Zero(t, store.committed)
	assert.Empty(t, store.documents)
}

func TestIngestRollsBackOnStoreFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full")}
	emb := new(mockEmbedder)
	emb.On("Embed", mock.Anything, mock.Anything, mock.Anything).Return([]float32{1}, nil)

	svc := NewConsumerService(nil, "INGEST_DOCUMENT", store, emb, logger.NewNopLogger())
	_, err := svc.Ingest(context.Background(), dto.PublishIngestDocumentMessage{Source: "x", Content: "text"})
	require.Error(t, err)
	assert.Equal(t, 1, store.rolledBack)
	assert.Zero(t, store.committed)
}

func TestIngestRequiresSource(t *testing.T) {
	svc := NewConsumerService(nil, "INGEST_DOCUMENT", &fakeStore{}, new(mockEmbedder), logger.NewNopLogger())
	_, err := svc.Ingest(context.Background(), dto.PublishIngestDocumentMessage{Content: "text"})
	assert.Error(t, err)
}
