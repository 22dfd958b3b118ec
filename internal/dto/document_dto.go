package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	Source     string   `json:"source" validate:"required,max=512"`
	Content    string   `json:"content" validate:"required"`
	ImagePaths []string `json:"image_paths,omitempty" validate:"max=20"`
}

type IngestDocumentResponse struct {
	Source    string `json:"source"`
	MessageId string `json:"message_id"`
}

// PublishIngestDocumentMessage is the payload carried on the ingest topic.
type PublishIngestDocumentMessage struct {
	Source     string   `json:"source"`
	Content    string   `json:"content"`
	ImagePaths []string `json:"image_paths,omitempty"`
}

type DocumentChunk struct {
	Id         uuid.UUID `json:"id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	ImagePath  string    `json:"image_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type DocumentChunksResponse struct {
	Source string          `json:"source"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Chunks []DocumentChunk `json:"chunks"`
}
