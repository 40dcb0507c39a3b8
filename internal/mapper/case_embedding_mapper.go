package mapper

import (
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CaseEmbeddingMapper struct{}

func NewCaseEmbeddingMapper() *CaseEmbeddingMapper {
	return &CaseEmbeddingMapper{}
}

func (m *CaseEmbeddingMapper) ToEntity(mdl *model.CaseEmbedding) *entity.CaseEmbedding {
	if mdl == nil {
		return nil
	}

	var updatedAt *time.Time
	if !mdl.UpdatedAt.IsZero() {
		t := mdl.UpdatedAt
		updatedAt = &t
	}

	var deletedAt *time.Time
	if mdl.DeletedAt.Valid {
		deletedAt = &mdl.DeletedAt.Time
	}

	return &entity.CaseEmbedding{
		Id:             mdl.Id,
		Document:       mdl.Document,
		EmbeddingValue: mdl.EmbeddingValue.Slice(),
		CaseId:         mdl.CaseId,
		CreatedAt:      mdl.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      mdl.DeletedAt.Valid,
	}
}

func (m *CaseEmbeddingMapper) ToModel(ent *entity.CaseEmbedding) *model.CaseEmbedding {
	if ent == nil {
		return nil
	}

	var updatedAt time.Time
	if ent.UpdatedAt != nil {
		updatedAt = *ent.UpdatedAt
	}

	var deletedAt gorm.DeletedAt
	if ent.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *ent.DeletedAt, Valid: true}
	}

	return &model.CaseEmbedding{
		Id:             ent.Id,
		Document:       ent.Document,
		EmbeddingValue: pgvector.NewVector(ent.EmbeddingValue),
		CaseId:         ent.CaseId,
		CreatedAt:      ent.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *CaseEmbeddingMapper) ToEntities(models []model.CaseEmbedding) []entity.CaseEmbedding {
	entities := make([]entity.CaseEmbedding, 0, len(models))
	for i := range models {
		entities = append(entities, *m.ToEntity(&models[i]))
	}
	return entities
}

func (m *CaseEmbeddingMapper) ToModels(entities []entity.CaseEmbedding) []model.CaseEmbedding {
	models := make([]model.CaseEmbedding, 0, len(entities))
	for i := range entities {
		models = append(models, *m.ToModel(&entities[i]))
	}
	return models
}
