package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEmbedding is an indexed unit in the vector store. Its Id is derived
// deterministically from (session, topic, fact version, chunk index) so that
// re-indexing the same fact-set version is a pure overwrite.
type KnowledgeEmbedding struct {
	Id         uuid.UUID
	SessionId  uuid.UUID
	TopicId    string
	TopicName  string
	Document   string
	Embedding  []float32
	ChunkIndex int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
