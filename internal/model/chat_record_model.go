package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatRecord is the audit row written after every answered question.
type ChatRecord struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             string         `gorm:"type:varchar(255);not null;index"`
	SessionId          string         `gorm:"type:varchar(255);not null;index"`
	Question           string         `gorm:"type:text;not null"`
	Response           string         `gorm:"type:text"`
	Reasoning          string         `gorm:"type:text"`
	ContextText        string         `gorm:"type:text"`
	ImageUrls          datatypes.JSON `gorm:"type:jsonb"`
	ReasoningProvider  string         `gorm:"type:varchar(50)"`
	GenerationProvider string         `gorm:"type:varchar(50)"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
}

func (ChatRecord) TableName() string {
	return "chat_records"
}
