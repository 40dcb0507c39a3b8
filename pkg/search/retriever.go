package search

import (
	"context"
	"fmt"
	"log"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/repository/specification"
	"voc-chatbot-be/internal/repository/unitofwork"
	"voc-chatbot-be/pkg/embedding"
	"voc-chatbot-be/pkg/flow"

	"github.com/google/uuid"
)

// Retriever answers the conversation pipeline's knowledge-base lookups by
// embedding the query and scoring it against stored case embeddings.
type Retriever struct {
	factory   unitofwork.RepositoryFactory
	embedder  embedding.Provider
	threshold float64
	logger    *log.Logger
}

func NewRetriever(factory unitofwork.RepositoryFactory, embedder embedding.Provider, threshold float64, logger *log.Logger) *Retriever {
	return &Retriever{
		factory:   factory,
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
	}
}

func (r *Retriever) SearchCases(ctx context.Context, query string, topK int) ([]flow.CaseRecord, error) {
	return r.scoredSearch(ctx, query, "", topK)
}

func (r *Retriever) FilterCasesByIssueType(ctx context.Context, query string, issueType string, topK int) ([]flow.CaseRecord, error) {
	return r.scoredSearch(ctx, query, issueType, topK)
}

func (r *Retriever) scoredSearch(ctx context.Context, query, issueType string, topK int) ([]flow.CaseRecord, error) {
	resp, err := r.embedder.Generate(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	uow := r.factory.NewUnitOfWork(ctx)
	embRepo := uow.CaseEmbeddingRepository()

	var hits []scoredHit
	if issueType == "" {
		res, err := embRepo.SearchSimilarWithScore(ctx, resp.Embedding.Values, topK, r.threshold)
		if err != nil {
			return nil, err
		}
		for _, h := range res {
			hits = append(hits, scoredHit{caseId: h.Embedding.CaseId, similarity: h.Similarity})
		}
	} else {
		res, err := embRepo.SearchSimilarByIssueType(ctx, resp.Embedding.Values, issueType, topK, r.threshold)
		if err != nil {
			return nil, err
		}
		for _, h := range res {
			hits = append(hits, scoredHit{caseId: h.Embedding.CaseId, similarity: h.Similarity})
		}
	}

	if len(hits) == 0 {
		r.logger.Printf("[SEARCH] No cases above threshold %.2f for query: %s", r.threshold, firstRunes(query, 50))
		return nil, nil
	}

	return r.loadRecords(ctx, uow, hits)
}

type scoredHit struct {
	caseId     uuid.UUID
	similarity float64
}

// loadRecords resolves scored embedding hits into full case records,
// preserving similarity order and collapsing duplicate case ids.
func (r *Retriever) loadRecords(ctx context.Context, uow unitofwork.UnitOfWork, hits []scoredHit) ([]flow.CaseRecord, error) {
	ids := make([]uuid.UUID, 0, len(hits))
	bestScore := make(map[uuid.UUID]float64, len(hits))
	for _, h := range hits {
		if _, seen := bestScore[h.caseId]; !seen {
			ids = append(ids, h.caseId)
			bestScore[h.caseId] = h.similarity
		}
	}

	cases, err := uow.KnowledgeCaseRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}

	byId := make(map[uuid.UUID]*entity.KnowledgeCase, len(cases))
	for _, kc := range cases {
		byId[kc.Id] = kc
	}

	records := make([]flow.CaseRecord, 0, len(ids))
	for _, id := range ids {
		kc, ok := byId[id]
		if !ok {
			continue
		}
		rec := toCaseRecord(kc)
		rec.Score = bestScore[id]
		records = append(records, rec)
	}
	return records, nil
}

func (r *Retriever) GetCaseByID(ctx context.Context, id string) (*flow.CaseRecord, error) {
	caseId, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid case id %q: %w", id, err)
	}

	uow := r.factory.NewUnitOfWork(ctx)
	kc, err := uow.KnowledgeCaseRepository().FindOne(ctx, specification.ByID{ID: caseId})
	if err != nil {
		return nil, err
	}
	if kc == nil {
		return nil, nil
	}
	rec := toCaseRecord(kc)
	return &rec, nil
}

// RelatedQuestions returns the clarifying questions attached to the resolved
// case, falling back to the questions of every case in the issue category
// when the case is still undetermined.
func (r *Retriever) RelatedQuestions(ctx context.Context, issueType string, caseID string) ([]string, error) {
	uow := r.factory.NewUnitOfWork(ctx)
	repo := uow.KnowledgeCaseRepository()

	if caseID != "" {
		if caseId, err := uuid.Parse(caseID); err == nil {
			kc, err := repo.FindOne(ctx, specification.ByID{ID: caseId})
			if err != nil {
				return nil, err
			}
			if kc != nil && len(kc.QuestionsToAsk) > 0 {
				return kc.QuestionsToAsk, nil
			}
		}
	}

	if issueType == "" {
		return nil, nil
	}

	cases, err := repo.FindAll(ctx,
		specification.ByIssueType{IssueType: issueType},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	var questions []string
	for _, kc := range cases {
		questions = append(questions, kc.QuestionsToAsk...)
	}
	return questions, nil
}

func toCaseRecord(kc *entity.KnowledgeCase) flow.CaseRecord {
	return flow.CaseRecord{
		ID:                 kc.Id.String(),
		IssueType:          kc.IssueType,
		IssueName:          kc.IssueName,
		CaseType:           kc.CaseType,
		CaseName:           kc.CaseName,
		Description:        kc.Description,
		Symptoms:           kc.Symptoms,
		QuestionsToAsk:     kc.QuestionsToAsk,
		SolutionSteps:      kc.SolutionSteps,
		EscalationTriggers: kc.EscalationTriggers,
	}
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
