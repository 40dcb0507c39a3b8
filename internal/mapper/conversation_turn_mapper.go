package mapper

import (
	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/model"
)

type ConversationTurnMapper struct{}

func NewConversationTurnMapper() *ConversationTurnMapper {
	return &ConversationTurnMapper{}
}

func (m *ConversationTurnMapper) ToEntity(mdl *model.ConversationTurn) *entity.ConversationTurn {
	if mdl == nil {
		return nil
	}

	return &entity.ConversationTurn{
		Id:               mdl.Id,
		SessionId:        mdl.SessionId,
		Turn:             mdl.Turn,
		UserMessage:      mdl.UserMessage,
		BotResponse:      mdl.BotResponse,
		CurrentIssue:     mdl.CurrentIssue,
		CurrentCase:      mdl.CurrentCase,
		Confidence:       mdl.Confidence,
		Flag:             mdl.Flag,
		ErrorFlag:        mdl.ErrorFlag,
		NeedsEscalation:  mdl.NeedsEscalation,
		EscalationReason: mdl.EscalationReason,
		RAGUsed:          mdl.RAGUsed,
		NodeHistory:      fromJSONArray(mdl.NodeHistory),
		CreatedAt:        mdl.CreatedAt,
	}
}

func (m *ConversationTurnMapper) ToModel(ent *entity.ConversationTurn) *model.ConversationTurn {
	if ent == nil {
		return nil
	}

	return &model.ConversationTurn{
		Id:               ent.Id,
		SessionId:        ent.SessionId,
		Turn:             ent.Turn,
		UserMessage:      ent.UserMessage,
		BotResponse:      ent.BotResponse,
		CurrentIssue:     ent.CurrentIssue,
		CurrentCase:      ent.CurrentCase,
		Confidence:       ent.Confidence,
		Flag:             ent.Flag,
		ErrorFlag:        ent.ErrorFlag,
		NeedsEscalation:  ent.NeedsEscalation,
		EscalationReason: ent.EscalationReason,
		RAGUsed:          ent.RAGUsed,
		NodeHistory:      toJSONArray(ent.NodeHistory),
		CreatedAt:        ent.CreatedAt,
	}
}

func (m *ConversationTurnMapper) ToEntities(models []model.ConversationTurn) []entity.ConversationTurn {
	entities := make([]entity.ConversationTurn, 0, len(models))
	for i := range models {
		entities = append(entities, *m.ToEntity(&models[i]))
	}
	return entities
}

func (m *ConversationTurnMapper) ToModels(entities []entity.ConversationTurn) []model.ConversationTurn {
	models := make([]model.ConversationTurn, 0, len(entities))
	for i := range entities {
		models = append(models, *m.ToModel(&entities[i]))
	}
	return models
}
