package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/model"
)

func TestListChunksPagesOneSource(t *testing.T) {
	store := &fakeStore{}
	for _, i := range []int{2, 0, 3, 1} {
		store.documents = append(store.documents, &model.DocumentEmbedding{Source: "manual.pdf", ChunkIndex: i, Content: "chunk"})
	}
	store.documents = append(store.documents, &model.DocumentEmbedding{Source: "other.pdf"})

	svc := NewDocumentService(store)

	res, err := svc.ListChunks(context.Background(), "manual.pdf", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "manual.pdf", res.Source)
	assert.Equal(t, int64(4), res.Total)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, 1, res.Chunks[0].ChunkIndex)
	assert.Equal(t, 2, res.Chunks[1].ChunkIndex)
}

func TestListChunksClampsPaging(t *testing.T) {
	svc := NewDocumentService(&fakeStore{})

	res, err := svc.ListChunks(context.Background(), "missing.pdf", 500, -1)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Limit)
	assert.Equal(t, 0, res.Offset)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Chunks)
}
