package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"voc-chatbot-be/internal/constant"
	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/repository/specification"
	"voc-chatbot-be/internal/repository/unitofwork"
	"voc-chatbot-be/pkg/embedding"
	"voc-chatbot-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process bus: turn records are persisted off
// the request path, and case edits trigger a re-embed of the case document.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	turns, err := cs.pubSub.Subscribe(ctx, constant.TopicTurnCompleted)
	if err != nil {
		return err
	}
	cases, err := cs.pubSub.Subscribe(ctx, constant.TopicCaseChanged)
	if err != nil {
		return err
	}

	go func() {
		for msg := range turns {
			cs.processTurn(ctx, msg)
		}
	}()
	go func() {
		for msg := range cases {
			cs.processCaseChange(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processTurn(ctx context.Context, msg *message.Message) {
	var payload dto.TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal turn message: %v", err)
		msg.Ack() // malformed payloads would retry forever
		return
	}

	turn := &entity.ConversationTurn{
		SessionId:        payload.SessionId,
		Turn:             payload.Turn,
		UserMessage:      payload.UserMessage,
		BotResponse:      payload.BotResponse,
		CurrentIssue:     payload.CurrentIssue,
		CurrentCase:      payload.CurrentCase,
		Confidence:       payload.Confidence,
		Flag:             payload.Flag,
		ErrorFlag:        payload.ErrorFlag,
		NeedsEscalation:  payload.NeedsEscalation,
		EscalationReason: payload.EscalationReason,
		RAGUsed:          payload.RAGUsed,
		NodeHistory:      payload.NodeHistory,
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationTurnRepository().Create(ctx, turn); err != nil {
		log.Printf("[ERROR] Failed to persist turn %d of session %s: %v", payload.Turn, payload.SessionId, err)
		msg.Nack()
		return
	}

	msg.Ack()
}

func (cs *consumerService) processCaseChange(ctx context.Context, msg *message.Message) {
	var payload dto.CaseChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal case message: %v", err)
		msg.Ack()
		return
	}

	caseId, err := uuid.Parse(payload.CaseId)
	if err != nil {
		log.Printf("[ERROR] Invalid case id in message: %s", payload.CaseId)
		msg.Ack()
		return
	}

	log.Printf("[INFO] Re-embedding case %s", caseId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	kc, err := uow.KnowledgeCaseRepository().FindOne(ctx, specification.ByID{ID: caseId})
	if err != nil {
		log.Printf("[ERROR] Failed to load case %s: %v", caseId, err)
		msg.Nack()
		return
	}

	embRepo := uow.CaseEmbeddingRepository()
	if err := embRepo.DeleteByCaseId(ctx, caseId); err != nil {
		log.Printf("[ERROR] Failed to clear embeddings for case %s: %v", caseId, err)
		msg.Nack()
		return
	}

	if kc == nil {
		// Case was deleted; clearing the embeddings is all there is to do.
		msg.Ack()
		return
	}

	document := buildCaseDocument(kc)
	chunks := utils.SplitText(document, utils.DefaultChunkSize, utils.DefaultChunkOverlap)

	var newEmbeddings []*entity.CaseEmbedding
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskDocument)
		if err != nil {
			log.Printf("[ERROR] Failed to embed chunk %d of case %s: %v", i, caseId, err)
			msg.Nack()
			return
		}
		newEmbeddings = append(newEmbeddings, &entity.CaseEmbedding{
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			CaseId:         caseId,
		})
	}

	if err := embRepo.CreateBulk(ctx, newEmbeddings); err != nil {
		log.Printf("[ERROR] Failed to store embeddings for case %s: %v", caseId, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Stored %d embedding chunks for case %s", len(newEmbeddings), caseId)
	msg.Ack()
}

// buildCaseDocument flattens a case into the text that gets embedded. The
// layout matters: symptoms and keywords carry most of the retrieval signal.
func buildCaseDocument(kc *entity.KnowledgeCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Issue: %s (%s)\n", kc.IssueName, kc.IssueType)
	fmt.Fprintf(&b, "Case: %s (%s)\n\n", kc.CaseName, kc.CaseType)
	if kc.Description != "" {
		b.WriteString(kc.Description)
		b.WriteString("\n\n")
	}
	if len(kc.Symptoms) > 0 {
		b.WriteString("Symptoms:\n")
		for _, s := range kc.Symptoms {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(kc.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(kc.Keywords, ", "))
	}
	return b.String()
}
