package unitofwork

import (
	"context"

	"voc-chatbot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	KnowledgeCaseRepository() contract.KnowledgeCaseRepository
	CaseEmbeddingRepository() contract.CaseEmbeddingRepository
	ConversationTurnRepository() contract.ConversationTurnRepository
	ConversationSummaryRepository() contract.ConversationSummaryRepository
	AdminUserRepository() contract.AdminUserRepository
}
