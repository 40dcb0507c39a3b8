package contract

import (
	"context"
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/repository/specification"
)

// SummaryStats is the aggregate view served by the analytics endpoints.
type SummaryStats struct {
	TotalSessions     int64
	EscalatedSessions int64
	ResolvedSessions  int64
	AvgTurnsPerCase   float64
}

// IssueBreakdown is the per-category slice of the aggregate view.
type IssueBreakdown struct {
	IssueType string
	Sessions  int64
	Escalated int64
}

type ConversationSummaryRepository interface {
	Upsert(ctx context.Context, summary *entity.ConversationSummary) error
	FindBySessionId(ctx context.Context, sessionId string) (*entity.ConversationSummary, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationSummary, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Stats(ctx context.Context, from, to time.Time) (*SummaryStats, error)
	StatsByIssue(ctx context.Context, from, to time.Time) ([]*IssueBreakdown, error)
}
