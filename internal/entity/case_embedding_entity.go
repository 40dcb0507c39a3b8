package entity

import (
	"time"

	"github.com/google/uuid"
)

type CaseEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	CaseId         uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
