package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ConversationTurn struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId        string         `gorm:"type:varchar(128);not null;index"`
	Turn             int            `gorm:"not null"`
	UserMessage      string         `gorm:"type:text"`
	BotResponse      string         `gorm:"type:text"`
	CurrentIssue     string         `gorm:"type:varchar(100);index"`
	CurrentCase      string         `gorm:"type:varchar(128)"`
	Confidence       float64        `gorm:"type:double precision"`
	Flag             string         `gorm:"type:varchar(64)"`
	ErrorFlag        string         `gorm:"type:varchar(64)"`
	NeedsEscalation  bool           `gorm:"index"`
	EscalationReason string         `gorm:"type:varchar(64)"`
	RAGUsed          bool           `gorm:"column:rag_used"`
	NodeHistory      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime;index"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}
