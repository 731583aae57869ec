package unitofwork

import (
	"context"

	"kt-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	TopicStateRepository() contract.TopicStateRepository
	FactRepository() contract.FactRepository
	MessageRepository() contract.MessageRepository
	KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository
}
