package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConversationTurn is one persisted user/bot exchange with the pipeline's
// diagnostic trace, written by the background consumer after the reply
// has been returned.
type ConversationTurn struct {
	Id               uuid.UUID
	SessionId        string
	Turn             int
	UserMessage      string
	BotResponse      string
	CurrentIssue     string
	CurrentCase      string
	Confidence       float64
	Flag             string
	ErrorFlag        string
	NeedsEscalation  bool
	EscalationReason string
	RAGUsed          bool
	NodeHistory      []string
	CreatedAt        time.Time
}
