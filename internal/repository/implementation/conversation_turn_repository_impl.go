package implementation

import (
	"context"
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/mapper"
	"voc-chatbot-be/internal/model"
	"voc-chatbot-be/internal/repository/contract"
	"voc-chatbot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ConversationTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationTurnMapper
}

func NewConversationTurnRepository(db *gorm.DB) contract.ConversationTurnRepository {
	return &ConversationTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationTurnMapper(),
	}
}

func (r *ConversationTurnRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationTurnRepositoryImpl) Create(ctx context.Context, turn *entity.ConversationTurn) error {
	m := r.mapper.ToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConversationTurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error) {
	var models []*model.ConversationTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ConversationTurn, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ConversationTurnRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ConversationTurn{}).Count(&count).Error
	return count, err
}

func (r *ConversationTurnRepositoryImpl) FindBySession(ctx context.Context, sessionId string) ([]*entity.ConversationTurn, error) {
	var models []*model.ConversationTurn
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("turn ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.ConversationTurn, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ConversationTurnRepositoryImpl) StaleSessionIds(ctx context.Context, cutoff time.Time) ([]string, error) {
	var sessionIds []string
	err := r.db.WithContext(ctx).
		Model(&model.ConversationTurn{}).
		Select("session_id").
		Where("session_id NOT IN (?)", r.db.Table("conversation_summaries").Select("session_id")).
		Group("session_id").
		Having("MAX(created_at) < ?", cutoff).
		Pluck("session_id", &sessionIds).Error
	if err != nil {
		return nil, err
	}
	return sessionIds, nil
}
