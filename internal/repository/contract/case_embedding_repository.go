package contract

import (
	"context"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredCaseEmbedding wraps CaseEmbedding with its similarity score
type ScoredCaseEmbedding struct {
	Embedding  *entity.CaseEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type CaseEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.CaseEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.CaseEmbedding) error
	Update(ctx context.Context, embedding *entity.CaseEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCaseId(ctx context.Context, caseId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CaseEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns embeddings with cosine similarity scores above threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredCaseEmbedding, error)
	// SearchSimilarByIssueType restricts the scored search to cases of one issue category.
	SearchSimilarByIssueType(ctx context.Context, embedding []float32, issueType string, limit int, threshold float64) ([]*ScoredCaseEmbedding, error)
}
