package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"voc-chatbot-be/internal/constant"
	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/pkg/logger"
	"voc-chatbot-be/internal/repository/specification"
	"voc-chatbot-be/internal/repository/unitofwork"
	"voc-chatbot-be/pkg/events"
	"voc-chatbot-be/pkg/flow"
	pktNats "voc-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IAdminService interface {
	CreateCase(ctx context.Context, req *dto.UpsertCaseRequest) (*dto.CaseResponse, error)
	UpdateCase(ctx context.Context, id uuid.UUID, req *dto.UpsertCaseRequest) (*dto.CaseResponse, error)
	DeleteCase(ctx context.Context, id uuid.UUID) error
	GetCase(ctx context.Context, id uuid.UUID) (*dto.CaseResponse, error)
	ListCases(ctx context.Context, req *dto.ListCasesRequest) (*dto.ListCasesResponse, error)
	DraftCase(ctx context.Context, req *dto.DraftCaseRequest) (*dto.DraftCaseResponse, error)
	ListIssueTypes(ctx context.Context) ([]string, error)
	GetLogs(level string, limit, offset int) ([]logger.LogEntry, error)
}

type adminService struct {
	uowFactory     unitofwork.RepositoryFactory
	completion     flow.CompletionGateway
	pubSub         *gochannel.GoChannel
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	completion flow.CompletionGateway,
	pubSub *gochannel.GoChannel,
	eventPublisher *pktNats.Publisher,
	appLogger logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory:     uowFactory,
		completion:     completion,
		pubSub:         pubSub,
		eventPublisher: eventPublisher,
		logger:         appLogger,
	}
}

func (s *adminService) CreateCase(ctx context.Context, req *dto.UpsertCaseRequest) (*dto.CaseResponse, error) {
	kc := caseFromRequest(req)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeCaseRepository().Create(ctx, kc); err != nil {
		return nil, err
	}

	s.logger.Info("AdminService", "Knowledge case created", map[string]interface{}{
		"case_id":    kc.Id.String(),
		"issue_type": kc.IssueType,
	})
	s.announceCaseChange(ctx, kc.Id)

	return caseToResponse(kc), nil
}

func (s *adminService) UpdateCase(ctx context.Context, id uuid.UUID, req *dto.UpsertCaseRequest) (*dto.CaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.KnowledgeCaseRepository()

	kc, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if kc == nil {
		return nil, fmt.Errorf("case %s not found", id)
	}

	updated := caseFromRequest(req)
	updated.Id = kc.Id
	updated.CreatedAt = kc.CreatedAt

	if err := repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.logger.Info("AdminService", "Knowledge case updated", map[string]interface{}{
		"case_id": id.String(),
	})
	s.announceCaseChange(ctx, id)

	return caseToResponse(updated), nil
}

func (s *adminService) DeleteCase(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeCaseRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("AdminService", "Knowledge case deleted", map[string]interface{}{
		"case_id": id.String(),
	})
	// The consumer clears the orphaned embeddings.
	s.announceCaseChange(ctx, id)
	return nil
}

func (s *adminService) GetCase(ctx context.Context, id uuid.UUID) (*dto.CaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	kc, err := uow.KnowledgeCaseRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if kc == nil {
		return nil, fmt.Errorf("case %s not found", id)
	}
	return caseToResponse(kc), nil
}

func (s *adminService) ListCases(ctx context.Context, req *dto.ListCasesRequest) (*dto.ListCasesResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var specs []specification.Specification
	if req.IssueType != "" {
		specs = append(specs, specification.ByIssueType{IssueType: req.IssueType})
	}
	if req.Search != "" {
		specs = append(specs, specification.SearchCaseName{Query: req.Search})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.KnowledgeCaseRepository()

	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	listSpecs := append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	cases, err := repo.FindAll(ctx, listSpecs...)
	if err != nil {
		return nil, err
	}

	res := &dto.ListCasesResponse{
		Cases: make([]dto.CaseResponse, len(cases)),
		Total: total,
	}
	for i, kc := range cases {
		res.Cases[i] = *caseToResponse(kc)
	}
	return res, nil
}

// DraftCase turns raw customer-voice text into a structured case draft.
// The admin reviews and saves it through the normal create endpoint.
func (s *adminService) DraftCase(ctx context.Context, req *dto.DraftCaseRequest) (*dto.DraftCaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	issueTypes, err := uow.KnowledgeCaseRepository().DistinctIssueTypes(ctx)
	if err != nil {
		return nil, err
	}

	prompt := buildDraftPrompt(req.Text, issueTypes)
	raw, err := s.completion.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to draft case: %w", err)
	}

	var parsed struct {
		dto.UpsertCaseRequest
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse case draft: %w", err)
	}

	return &dto.DraftCaseResponse{
		Draft:  parsed.UpsertCaseRequest,
		Reason: parsed.Reason,
	}, nil
}

func (s *adminService) ListIssueTypes(ctx context.Context) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.KnowledgeCaseRepository().DistinctIssueTypes(ctx)
}

func (s *adminService) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.logger.GetLogs(level, limit, offset)
}

func (s *adminService) announceCaseChange(ctx context.Context, id uuid.UUID) {
	raw, err := json.Marshal(dto.CaseChangedMessage{CaseId: id.String()})
	if err != nil {
		return
	}
	if err := s.pubSub.Publish(constant.TopicCaseChanged, message.NewMessage(watermill.NewUUID(), raw)); err != nil {
		s.logger.Error("AdminService", "Failed to publish case change", map[string]interface{}{
			"case_id": id.String(),
			"error":   err.Error(),
		})
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewCaseUpdated(id.String())); err != nil {
			s.logger.Warn("AdminService", "Failed to publish case event", map[string]interface{}{
				"case_id": id.String(),
				"error":   err.Error(),
			})
		}
	}
}

func buildDraftPrompt(text string, issueTypes []string) string {
	var b strings.Builder
	b.WriteString("You are a support knowledge-base editor. Turn the customer feedback below into a structured troubleshooting case.\n\n")
	if len(issueTypes) > 0 {
		b.WriteString("Existing issue categories (reuse one when it fits, invent a new snake_case one only if none fit):\n")
		for _, it := range issueTypes {
			fmt.Fprintf(&b, "- %s\n", it)
		}
		b.WriteString("\n")
	}
	b.WriteString("Customer feedback:\n")
	b.WriteString(text)
	b.WriteString("\n\nRespond with JSON only:\n")
	b.WriteString(`{"issue_type": "...", "issue_name": "...", "case_type": "...", "case_name": "...", "description": "...", "symptoms": ["..."], "questions_to_ask": ["..."], "solution_steps": ["..."], "escalation_triggers": ["..."], "keywords": ["..."], "reason": "why you structured it this way"}`)
	return b.String()
}

// extractJSONObject pulls the first balanced-looking JSON object out of a
// model response that may be wrapped in prose or code fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

func caseFromRequest(req *dto.UpsertCaseRequest) *entity.KnowledgeCase {
	return &entity.KnowledgeCase{
		IssueType:          req.IssueType,
		IssueName:          req.IssueName,
		CaseType:           req.CaseType,
		CaseName:           req.CaseName,
		Description:        req.Description,
		Symptoms:           req.Symptoms,
		QuestionsToAsk:     req.QuestionsToAsk,
		SolutionSteps:      req.SolutionSteps,
		EscalationTriggers: req.EscalationTriggers,
		Keywords:           req.Keywords,
	}
}

func caseToResponse(kc *entity.KnowledgeCase) *dto.CaseResponse {
	return &dto.CaseResponse{
		Id:                 kc.Id,
		IssueType:          kc.IssueType,
		IssueName:          kc.IssueName,
		CaseType:           kc.CaseType,
		CaseName:           kc.CaseName,
		Description:        kc.Description,
		Symptoms:           kc.Symptoms,
		QuestionsToAsk:     kc.QuestionsToAsk,
		SolutionSteps:      kc.SolutionSteps,
		EscalationTriggers: kc.EscalationTriggers,
		Keywords:           kc.Keywords,
		CreatedAt:          kc.CreatedAt,
		UpdatedAt:          kc.UpdatedAt,
	}
}
