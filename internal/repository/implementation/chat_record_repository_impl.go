package implementation

import (
	"context"

	"gorm.io/gorm"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"
)

type ChatRecordRepositoryImpl struct {
	db *gorm.DB
}

func NewChatRecordRepository(db *gorm.DB) contract.ChatRecordRepository {
	return &ChatRecordRepositoryImpl{db: db}
}

func (r *ChatRecordRepositoryImpl) Create(ctx context.Context, record *model.ChatRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *ChatRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.ChatRecord, error) {
	var records []*model.ChatRecord
	if err := specification.ApplyAll(r.db.WithContext(ctx), specs...).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ChatRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	err := specification.ApplyAll(r.db.WithContext(ctx), specs...).Model(&model.ChatRecord{}).Count(&count).Error
	return count, err
}
