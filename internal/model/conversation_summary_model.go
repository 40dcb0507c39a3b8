package model

import (
	"time"

	"github.com/google/uuid"
)

type ConversationSummary struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId  string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	TurnCount  int       `gorm:"not null"`
	FinalIssue string    `gorm:"type:varchar(100);index"`
	FinalCase  string    `gorm:"type:varchar(128)"`
	Escalated  bool      `gorm:"index"`
	Resolved   bool
	ErrorCount int
	StartedAt  time.Time
	EndedAt    time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (ConversationSummary) TableName() string {
	return "conversation_summaries"
}
