package contract

import (
	"context"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/specification"
)

type ChatRecordRepository interface {
	Create(ctx context.Context, record *model.ChatRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.ChatRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
