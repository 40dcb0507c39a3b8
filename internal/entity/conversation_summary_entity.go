package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConversationSummary is the per-session aggregate the analytics job
// derives from persisted turns.
type ConversationSummary struct {
	Id         uuid.UUID
	SessionId  string
	TurnCount  int
	FinalIssue string
	FinalCase  string
	Escalated  bool
	Resolved   bool
	ErrorCount int
	StartedAt  time.Time
	EndedAt    time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
