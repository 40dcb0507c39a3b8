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
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CaseEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseEmbeddingMapper
}

func NewCaseEmbeddingRepository(db *gorm.DB) contract.CaseEmbeddingRepository {
	return &CaseEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseEmbeddingMapper(),
	}
}

func (r *CaseEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CaseEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.CaseEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *CaseEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.CaseEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.CaseEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *CaseEmbeddingRepositoryImpl) Update(ctx context.Context, embedding *entity.CaseEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *CaseEmbeddingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CaseEmbedding{}, id).Error
}

func (r *CaseEmbeddingRepositoryImpl) DeleteByCaseId(ctx context.Context, caseId uuid.UUID) error {
	// Hard delete so a re-embed of the same case never stacks stale rows.
	return r.db.WithContext(ctx).Unscoped().Where("case_id = ?", caseId).Delete(&model.CaseEmbedding{}).Error
}

func (r *CaseEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CaseEmbedding, error) {
	var m model.CaseEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CaseEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseEmbedding, error) {
	var models []*model.CaseEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CaseEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *CaseEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.CaseEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore scores by cosine similarity. pgvector's <=> operator
// is cosine distance, so similarity = 1 - distance.
func (r *CaseEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredCaseEmbedding, error) {
	return r.scoredSearch(ctx, embedding, "", limit, threshold)
}

func (r *CaseEmbeddingRepositoryImpl) SearchSimilarByIssueType(ctx context.Context, embedding []float32, issueType string, limit int, threshold float64) ([]*contract.ScoredCaseEmbedding, error) {
	return r.scoredSearch(ctx, embedding, issueType, limit, threshold)
}

func (r *CaseEmbeddingRepositoryImpl) scoredSearch(ctx context.Context, embedding []float32, issueType string, limit int, threshold float64) ([]*contract.ScoredCaseEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.CaseEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("case_embeddings").
		Select("case_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN knowledge_cases ON knowledge_cases.id = case_embeddings.case_id").
		Where("case_embeddings.deleted_at IS NULL").
		Where("knowledge_cases.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold)

	if issueType != "" {
		query = query.Where("knowledge_cases.issue_type = ?", issueType)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredCaseEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredCaseEmbedding{
			Embedding:  r.mapper.ToEntity(&res.CaseEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
