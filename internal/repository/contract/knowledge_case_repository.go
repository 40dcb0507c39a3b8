package contract

import (
	"context"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type KnowledgeCaseRepository interface {
	Create(ctx context.Context, kc *entity.KnowledgeCase) error
	Update(ctx context.Context, kc *entity.KnowledgeCase) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeCase, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeCase, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// DistinctIssueTypes lists the issue categories currently present in the knowledge base.
	DistinctIssueTypes(ctx context.Context) ([]string, error)
}
