package contract

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredKnowledgeEmbedding pairs an indexed unit with its cosine similarity to a query.
type ScoredKnowledgeEmbedding struct {
	Embedding  *entity.KnowledgeEmbedding
	Similarity float64
}

// KnowledgeEmbeddingRepository is the vector-store boundary: upsert-by-id,
// delete-by-metadata-filter and session-scoped nearest-neighbor search.
type KnowledgeEmbeddingRepository interface {
	UpsertBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error
	DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error
	DeleteBySessionTopicUnscoped(ctx context.Context, sessionId uuid.UUID, topicId string) error
	DeleteWhereSessionNotIn(ctx context.Context, sessionIds []uuid.UUID) (int64, error)
	CountWhereSessionNotIn(ctx context.Context, sessionIds []uuid.UUID) (int64, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEmbedding, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int, sessionId uuid.UUID, topicId string) ([]*ScoredKnowledgeEmbedding, error)
}
