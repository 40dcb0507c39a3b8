package implementation

import (
	"context"
	"errors"
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/mapper"
	"voc-chatbot-be/internal/model"
	"voc-chatbot-be/internal/repository/contract"
	"voc-chatbot-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationSummaryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationSummaryMapper
}

func NewConversationSummaryRepository(db *gorm.DB) contract.ConversationSummaryRepository {
	return &ConversationSummaryRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationSummaryMapper(),
	}
}

func (r *ConversationSummaryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Upsert keys on session_id so re-running the aggregation window is idempotent.
func (r *ConversationSummaryRepositoryImpl) Upsert(ctx context.Context, summary *entity.ConversationSummary) error {
	m := r.mapper.ToModel(summary)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"turn_count", "final_issue", "final_case", "escalated",
				"resolved", "error_count", "ended_at", "updated_at",
			}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*summary = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConversationSummaryRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string) (*entity.ConversationSummary, error) {
	var m model.ConversationSummary
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationSummaryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationSummary, error) {
	var models []model.ConversationSummary
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ConversationSummary, len(models))
	for i := range models {
		entities[i] = r.mapper.ToEntity(&models[i])
	}
	return entities, nil
}

func (r *ConversationSummaryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ConversationSummary{}).Count(&count).Error
	return count, err
}

func (r *ConversationSummaryRepositoryImpl) Stats(ctx context.Context, from, to time.Time) (*contract.SummaryStats, error) {
	var stats contract.SummaryStats
	err := r.db.WithContext(ctx).
		Model(&model.ConversationSummary{}).
		Select(
			"COUNT(*) as total_sessions, " +
				"COUNT(*) FILTER (WHERE escalated) as escalated_sessions, " +
				"COUNT(*) FILTER (WHERE resolved) as resolved_sessions, " +
				"COALESCE(AVG(turn_count), 0) as avg_turns_per_case",
		).
		Where("ended_at >= ? AND ended_at < ?", from, to).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *ConversationSummaryRepositoryImpl) StatsByIssue(ctx context.Context, from, to time.Time) ([]*contract.IssueBreakdown, error) {
	var rows []*contract.IssueBreakdown
	err := r.db.WithContext(ctx).
		Model(&model.ConversationSummary{}).
		Select(
			"final_issue as issue_type, " +
				"COUNT(*) as sessions, " +
				"COUNT(*) FILTER (WHERE escalated) as escalated",
		).
		Where("ended_at >= ? AND ended_at < ?", from, to).
		Where("final_issue <> ''").
		Group("final_issue").
		Order("sessions DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
