package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"
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

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBulk(ctx context.Context, e []*model.DocumentEmbedding) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockRepo) DeleteBySource(ctx context.Context, source string) error {
	return m.Called(ctx, source).Error(0)
}

func (m *mockRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.DocumentEmbedding, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*model.DocumentEmbedding), args.Error(1)
}

func (m *mockRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) SearchSimilar(ctx context.Context, vec []float32, limit int) ([]*contract.ScoredDocumentEmbedding, error) {
	args := m.Called(ctx, vec, limit)
	res, _ := args.Get(0).([]*contract.ScoredDocumentEmbedding)
	return res, args.Error(1)
}

func TestSearchJoinsChunks(t *testing.T) {
	vec := []float32{0.1, 0.2}
	emb := new(mockEmbedder)
	emb.On("Embed", mock.Anything, "battery?", embedding.TaskRetrievalQuery).Return(vec, nil)

	repo := new(mockRepo)
	repo.On("SearchSimilar", mock.Anything, vec, 3).Return([]*contract.ScoredDocumentEmbedding{
		{Embedding: &model.DocumentEmbedding{Content: "first", ImagePath: "a.png\nb.png"}, Similarity: 0.9},
		{Embedding: &model.DocumentEmbedding{Content: "second"}, Similarity: 0.8},
	}, nil)

	res, err := NewRetriever(emb, repo, nil).Search(context.Background(), "battery?", 3)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", res.Context)
	assert.Equal(t, []string{"a.png\nb.png"}, res.ImagePaths)
	emb.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSearchPropagatesEmbeddingFailure(t *testing.T) {
	cause := errors.New("quota")
	emb := new(mockEmbedder)
	emb.On("Embed", mock.Anything, "q", embedding.TaskRetrievalQuery).Return(nil, cause)
	repo := new(mockRepo)

	_, err := NewRetriever(emb, repo, nil).Search(context.Background(), "q", 3)
	assert.ErrorIs(t, err, cause)
	repo.AssertNotCalled(t, "SearchSimilar", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchPropagatesStoreFailure(t *testing.T) {
	vec := []float32{1}
	cause := errors.New("connection reset")
	emb := new(mockEmbedder)
	emb.On("Embed", mock.Anything, "q", embedding.TaskRetrievalQuery).Return(vec, nil)
	repo := new(mockRepo)
	repo.On("SearchSimilar", mock.Anything, vec, 3).Return(nil, cause)

	_, err := NewRetriever(emb, repo, nil).Search(context.Background(), "q", 3)
	assert.ErrorIs(t, err, cause)
}
