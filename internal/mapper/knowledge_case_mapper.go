package mapper

import (
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/model"

	"gorm.io/gorm"
)

type KnowledgeCaseMapper struct{}

func NewKnowledgeCaseMapper() *KnowledgeCaseMapper {
	return &KnowledgeCaseMapper{}
}

func (m *KnowledgeCaseMapper) ToEntity(mdl *model.KnowledgeCase) *entity.KnowledgeCase {
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

	return &entity.KnowledgeCase{
		Id:                 mdl.Id,
		IssueType:          mdl.IssueType,
		IssueName:          mdl.IssueName,
		CaseType:           mdl.CaseType,
		CaseName:           mdl.CaseName,
		Description:        mdl.Description,
		Symptoms:           fromJSONArray(mdl.Symptoms),
		QuestionsToAsk:     fromJSONArray(mdl.QuestionsToAsk),
		SolutionSteps:      fromJSONArray(mdl.SolutionSteps),
		EscalationTriggers: fromJSONArray(mdl.EscalationTriggers),
		Keywords:           fromJSONArray(mdl.Keywords),
		CreatedAt:          mdl.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
		IsDeleted:          mdl.DeletedAt.Valid,
	}
}

func (m *KnowledgeCaseMapper) ToModel(ent *entity.KnowledgeCase) *model.KnowledgeCase {
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

	return &model.KnowledgeCase{
		Id:                 ent.Id,
		IssueType:          ent.IssueType,
		IssueName:          ent.IssueName,
		CaseType:           ent.CaseType,
		CaseName:           ent.CaseName,
		Description:        ent.Description,
		Symptoms:           toJSONArray(ent.Symptoms),
		QuestionsToAsk:     toJSONArray(ent.QuestionsToAsk),
		SolutionSteps:      toJSONArray(ent.SolutionSteps),
		EscalationTriggers: toJSONArray(ent.EscalationTriggers),
		Keywords:           toJSONArray(ent.Keywords),
		CreatedAt:          ent.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
	}
}

func (m *KnowledgeCaseMapper) ToEntities(models []model.KnowledgeCase) []entity.KnowledgeCase {
	entities := make([]entity.KnowledgeCase, 0, len(models))
	for i := range models {
		entities = append(entities, *m.ToEntity(&models[i]))
	}
	return entities
}

func (m *KnowledgeCaseMapper) ToModels(entities []entity.KnowledgeCase) []model.KnowledgeCase {
	models := make([]model.KnowledgeCase, 0, len(entities))
	for i := range entities {
		models = append(models, *m.ToModel(&entities[i]))
	}
	return models
}
