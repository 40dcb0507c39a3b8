package mapper

import (
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/model"
)

type ConversationSummaryMapper struct{}

func NewConversationSummaryMapper() *ConversationSummaryMapper {
	return &ConversationSummaryMapper{}
}

func (m *ConversationSummaryMapper) ToEntity(mdl *model.ConversationSummary) *entity.ConversationSummary {
	if mdl == nil {
		return nil
	}

	var updatedAt *time.Time
	if !mdl.UpdatedAt.IsZero() {
		t := mdl.UpdatedAt
		updatedAt = &t
	}

	return &entity.ConversationSummary{
		Id:         mdl.Id,
		SessionId:  mdl.SessionId,
		TurnCount:  mdl.TurnCount,
		FinalIssue: mdl.FinalIssue,
		FinalCase:  mdl.FinalCase,
		Escalated:  mdl.Escalated,
		Resolved:   mdl.Resolved,
		ErrorCount: mdl.ErrorCount,
		StartedAt:  mdl.StartedAt,
		EndedAt:    mdl.EndedAt,
		CreatedAt:  mdl.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ConversationSummaryMapper) ToModel(ent *entity.ConversationSummary) *model.ConversationSummary {
	if ent == nil {
		return nil
	}

	var updatedAt time.Time
	if ent.UpdatedAt != nil {
		updatedAt = *ent.UpdatedAt
	}

	return &model.ConversationSummary{
		Id:         ent.Id,
		SessionId:  ent.SessionId,
		TurnCount:  ent.TurnCount,
		FinalIssue: ent.FinalIssue,
		FinalCase:  ent.FinalCase,
		Escalated:  ent.Escalated,
		Resolved:   ent.Resolved,
		ErrorCount: ent.ErrorCount,
		StartedAt:  ent.StartedAt,
		EndedAt:    ent.EndedAt,
		CreatedAt:  ent.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ConversationSummaryMapper) ToEntities(models []model.ConversationSummary) []entity.ConversationSummary {
	entities := make([]entity.ConversationSummary, 0, len(models))
	for i := range models {
		entities = append(entities, *m.ToEntity(&models[i]))
	}
	return entities
}
