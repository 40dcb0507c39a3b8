package contract

import (
	"context"
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/repository/specification"
)

type ConversationTurnRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindBySession returns a session's turns in turn order.
	FindBySession(ctx context.Context, sessionId string) ([]*entity.ConversationTurn, error)
	// StaleSessionIds lists sessions whose newest turn is older than the cutoff
	// and that have no summary row yet. The analytics job closes these out.
	StaleSessionIds(ctx context.Context, cutoff time.Time) ([]string, error)
}
