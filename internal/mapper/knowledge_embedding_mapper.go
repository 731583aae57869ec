package mapper

import (
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type KnowledgeEmbeddingMapper struct{}

func NewKnowledgeEmbeddingMapper() *KnowledgeEmbeddingMapper {
	return &KnowledgeEmbeddingMapper{}
}

func (m *KnowledgeEmbeddingMapper) ToEntity(e *model.KnowledgeEmbedding) *entity.KnowledgeEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.KnowledgeEmbedding{
		Id:         e.Id,
		SessionId:  e.SessionId,
		TopicId:    e.TopicId,
		TopicName:  e.TopicName,
		Document:   e.Document,
		Embedding:  e.EmbeddingValue.Slice(),
		ChunkIndex: e.ChunkIndex,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *KnowledgeEmbeddingMapper) ToModel(e *entity.KnowledgeEmbedding) *model.KnowledgeEmbedding {
	if e == nil {
		return nil
	}

	return &model.KnowledgeEmbedding{
		Id:             e.Id,
		SessionId:      e.SessionId,
		TopicId:        e.TopicId,
		TopicName:      e.TopicName,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.Embedding),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}
