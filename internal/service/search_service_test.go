package service

import (
	"context"
	"errors"
	"testing"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/pkg/kterrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVectors(store *memStore, sessionId uuid.UUID, topicId string, n int) {
	for i := 0; i < n; i++ {
		id := uuid.New()
		store.vectors[id] = &entity.KnowledgeEmbedding{
			Id:         id,
			SessionId:  sessionId,
			TopicId:    topicId,
			Document:   "chunk about " + topicId,
			ChunkIndex: i,
		}
	}
}

func TestSearchScopedToSession(t *testing.T) {
	store := newMemStore()
	mine := uuid.New()
	other := uuid.New()
	seedVectors(store, mine, "t1", 2)
	seedVectors(store, other, "t1", 5)

	svc := NewSearchService(&fakeFactory{store: store}, &scriptedEmbedder{}, 5, nopLogger{})

	res, err := svc.Search(context.Background(), mine, &dto.SearchRequest{Query: "how does it work"})
	require.NoError(t, err)
	assert.Len(t, res.Results, 2, "results never leak across sessions")
}

func TestSearchTopicFilter(t *testing.T) {
	store := newMemStore()
	sessionId := uuid.New()
	seedVectors(store, sessionId, "t1", 2)
	seedVectors(store, sessionId, "t3", 3)

	svc := NewSearchService(&fakeFactory{store: store}, &scriptedEmbedder{}, 10, nopLogger{})

	res, err := svc.Search(context.Background(), sessionId, &dto.SearchRequest{Query: "failures", TopicId: "t3"})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	for _, r := range res.Results {
		assert.Equal(t, "t3", r.TopicId)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	store := newMemStore()
	sessionId := uuid.New()
	seedVectors(store, sessionId, "t1", 10)

	svc := NewSearchService(&fakeFactory{store: store}, &scriptedEmbedder{}, 5, nopLogger{})

	res, err := svc.Search(context.Background(), sessionId, &dto.SearchRequest{Query: "everything"})
	require.NoError(t, err)
	assert.Len(t, res.Results, 5)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	store := newMemStore()
	svc := NewSearchService(&fakeFactory{store: store}, &scriptedEmbedder{err: errors.New("endpoint down")}, 5, nopLogger{})

	_, err := svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{Query: "anything"})
	require.Error(t, err)
	assert.True(t, kterrors.IsTransient(err))
}
