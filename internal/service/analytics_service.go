package service

import (
	"context"
	"time"

	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/pkg/logger"
	"voc-chatbot-be/internal/repository/specification"
	"voc-chatbot-be/internal/repository/unitofwork"
)

type IAnalyticsService interface {
	Stats(ctx context.Context, req *dto.StatsRequest) (*dto.StatsResponse, error)
	StatsByIssue(ctx context.Context, req *dto.StatsRequest) ([]*dto.IssueBreakdownResponse, error)
	ListSummaries(ctx context.Context, req *dto.ListSummariesRequest) ([]*dto.SessionSummaryResponse, error)
	StartSweeper(ctx context.Context)
}

// analyticsService aggregates finished conversations into per-session
// summary rows and serves the dashboard numbers off them.
type analyticsService struct {
	uowFactory unitofwork.RepositoryFactory
	idleWindow time.Duration
	interval   time.Duration
	logger     logger.ILogger
}

func NewAnalyticsService(
	uowFactory unitofwork.RepositoryFactory,
	idleWindow time.Duration,
	sweepInterval time.Duration,
	appLogger logger.ILogger,
) IAnalyticsService {
	return &analyticsService{
		uowFactory: uowFactory,
		idleWindow: idleWindow,
		interval:   sweepInterval,
		logger:     appLogger,
	}
}

func (s *analyticsService) Stats(ctx context.Context, req *dto.StatsRequest) (*dto.StatsResponse, error) {
	from, to := parseWindow(req)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stats, err := uow.ConversationSummaryRepository().Stats(ctx, from, to)
	if err != nil {
		return nil, err
	}

	res := &dto.StatsResponse{
		From:              from,
		To:                to,
		TotalSessions:     stats.TotalSessions,
		EscalatedSessions: stats.EscalatedSessions,
		ResolvedSessions:  stats.ResolvedSessions,
		AvgTurnsPerCase:   stats.AvgTurnsPerCase,
	}
	if stats.TotalSessions > 0 {
		res.EscalationRate = float64(stats.EscalatedSessions) / float64(stats.TotalSessions)
	}
	return res, nil
}

func (s *analyticsService) StatsByIssue(ctx context.Context, req *dto.StatsRequest) ([]*dto.IssueBreakdownResponse, error) {
	from, to := parseWindow(req)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.ConversationSummaryRepository().StatsByIssue(ctx, from, to)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.IssueBreakdownResponse, len(rows))
	for i, row := range rows {
		res[i] = &dto.IssueBreakdownResponse{
			IssueType: row.IssueType,
			Sessions:  row.Sessions,
			Escalated: row.Escalated,
		}
	}
	return res, nil
}

func (s *analyticsService) ListSummaries(ctx context.Context, req *dto.ListSummariesRequest) ([]*dto.SessionSummaryResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "ended_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	}
	if req.Escalated != nil {
		specs = append(specs, specification.Escalated{Value: *req.Escalated})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	summaries, err := uow.ConversationSummaryRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionSummaryResponse, len(summaries))
	for i, sum := range summaries {
		res[i] = &dto.SessionSummaryResponse{
			SessionId:  sum.SessionId,
			TurnCount:  sum.TurnCount,
			FinalIssue: sum.FinalIssue,
			FinalCase:  sum.FinalCase,
			Escalated:  sum.Escalated,
			Resolved:   sum.Resolved,
			ErrorCount: sum.ErrorCount,
			StartedAt:  sum.StartedAt,
			EndedAt:    sum.EndedAt,
		}
	}
	return res, nil
}

// StartSweeper periodically closes out idle sessions into summary rows.
func (s *analyticsService) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *analyticsService) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.idleWindow)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	turnRepo := uow.ConversationTurnRepository()
	summaryRepo := uow.ConversationSummaryRepository()

	sessionIds, err := turnRepo.StaleSessionIds(ctx, cutoff)
	if err != nil {
		s.logger.Error("AnalyticsService", "Sweep failed to list stale sessions", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(sessionIds) == 0 {
		return
	}

	s.logger.Info("AnalyticsService", "Sweeping idle sessions", map[string]interface{}{"count": len(sessionIds)})

	for _, sessionId := range sessionIds {
		turns, err := turnRepo.FindBySession(ctx, sessionId)
		if err != nil || len(turns) == 0 {
			continue
		}

		summary := summarizeSession(sessionId, turns)
		if err := summaryRepo.Upsert(ctx, summary); err != nil {
			s.logger.Error("AnalyticsService", "Failed to upsert summary", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
	}
}

func summarizeSession(sessionId string, turns []*entity.ConversationTurn) *entity.ConversationSummary {
	last := turns[len(turns)-1]

	errorCount := 0
	escalated := false
	for _, t := range turns {
		if t.ErrorFlag != "" {
			errorCount++
		}
		if t.NeedsEscalation {
			escalated = true
		}
	}

	// A session counts as resolved when it ended on a delivered solution:
	// a concrete case, no escalation, and a clean final turn.
	resolved := !escalated && last.CurrentCase != "" && last.ErrorFlag == ""

	return &entity.ConversationSummary{
		SessionId:  sessionId,
		TurnCount:  len(turns),
		FinalIssue: last.CurrentIssue,
		FinalCase:  last.CurrentCase,
		Escalated:  escalated,
		Resolved:   resolved,
		ErrorCount: errorCount,
		StartedAt:  turns[0].CreatedAt,
		EndedAt:    last.CreatedAt,
	}
}

func parseWindow(req *dto.StatsRequest) (time.Time, time.Time) {
	to := time.Now()
	from := to.AddDate(0, 0, -7)

	if req != nil {
		if t, err := time.Parse(time.RFC3339, req.From); err == nil {
			from = t
		}
		if t, err := time.Parse(time.RFC3339, req.To); err == nil {
			to = t
		}
	}
	return from, to
}
