package implementation

import (
	"context"
	"errors"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/mapper"
	"voc-chatbot-be/internal/model"
	"voc-chatbot-be/internal/repository/contract"
	"voc-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KnowledgeCaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeCaseMapper
}

func NewKnowledgeCaseRepository(db *gorm.DB) contract.KnowledgeCaseRepository {
	return &KnowledgeCaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeCaseMapper(),
	}
}

func (r *KnowledgeCaseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeCaseRepositoryImpl) Create(ctx context.Context, kc *entity.KnowledgeCase) error {
	m := r.mapper.ToModel(kc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*kc = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeCaseRepositoryImpl) Update(ctx context.Context, kc *entity.KnowledgeCase) error {
	m := r.mapper.ToModel(kc)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*kc = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeCaseRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.KnowledgeCase{}, id).Error
}

func (r *KnowledgeCaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeCase, error) {
	var m model.KnowledgeCase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *KnowledgeCaseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeCase, error) {
	var models []*model.KnowledgeCase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgeCase, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeCaseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeCase{}).Count(&count).Error
	return count, err
}

func (r *KnowledgeCaseRepositoryImpl) DistinctIssueTypes(ctx context.Context) ([]string, error) {
	var issueTypes []string
	err := r.db.WithContext(ctx).
		Model(&model.KnowledgeCase{}).
		Distinct("issue_type").
		Order("issue_type ASC").
		Pluck("issue_type", &issueTypes).Error
	if err != nil {
		return nil, err
	}
	return issueTypes, nil
}
