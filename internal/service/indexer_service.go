package service

import (
	"context"
	"fmt"
	"strings"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/coverage"
	"kt-assistant-be/pkg/embedding"
	"kt-assistant-be/pkg/kterrors"
	"kt-assistant-be/pkg/llm"
	"kt-assistant-be/pkg/utils"

	"github.com/google/uuid"
)

type IIndexerService interface {
	IndexTopic(ctx context.Context, sessionId uuid.UUID, topicId string) error
	IndexPending(ctx context.Context, sessionId uuid.UUID) error
}

type indexerService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
	catalog           []coverage.TopicDefinition
	chunkSize         int
	chunkOverlap      int
	sysLogger         logger.ILogger
}

func NewIndexerService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	catalog []coverage.TopicDefinition,
	chunkSize int,
	chunkOverlap int,
	sysLogger logger.ILogger,
) IIndexerService {
	return &indexerService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		catalog:           catalog,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
		sysLogger:         sysLogger,
	}
}

// IndexTopic builds the topic's knowledge document, chunks and embeds it, then
// upserts the vectors under ids derived from (session, topic, fact version,
// chunk). The Indexed flag flips only after every chunk landed, so a partial
// failure is retried wholesale on the next event.
func (s *indexerService) IndexTopic(ctx context.Context, sessionId uuid.UUID, topicId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	state, err := uow.TopicStateRepository().FindOne(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByTopicID{TopicID: topicId},
	)
	if err != nil {
		return &kterrors.IndexingError{SessionID: sessionId.String(), TopicID: topicId, Err: err}
	}
	if state == nil || !state.IsComplete() {
		return nil
	}

	rawFacts, err := uow.FactRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByTopicID{TopicID: topicId},
	)
	if err != nil {
		return &kterrors.IndexingError{SessionID: sessionId.String(), TopicID: topicId, Err: err}
	}

	facts := make([]entity.Fact, len(rawFacts))
	for i, f := range rawFacts {
		facts[i] = *f
	}
	facts = coverage.EffectiveFacts(facts)
	if len(facts) == 0 {
		return nil
	}

	document := s.buildDocument(ctx, state, facts)
	chunks := utils.SplitText(document, s.chunkSize, s.chunkOverlap)

	units := make([]*entity.KnowledgeEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := s.embeddingProvider.Generate(ctx, chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return &kterrors.IndexingError{SessionID: sessionId.String(), TopicID: topicId, Err: err}
		}

		units = append(units, &entity.KnowledgeEmbedding{
			Id:         unitId(sessionId, topicId, state.FactVersion, i),
			SessionId:  sessionId,
			TopicId:    topicId,
			TopicName:  state.TopicName,
			Document:   chunk,
			Embedding:  res.Embedding.Values,
			ChunkIndex: i,
		})
	}

	// Every chunk embedded: drop the previous version's units first, so
	// superseded content stops surfacing in search. On embedding failure above
	// the old units stay searchable.
	if err := uow.KnowledgeEmbeddingRepository().DeleteBySessionTopicUnscoped(ctx, sessionId, topicId); err != nil {
		return &kterrors.IndexingError{SessionID: sessionId.String(), TopicID: topicId, Err: err}
	}

	if err := uow.KnowledgeEmbeddingRepository().UpsertBulk(ctx, units); err != nil {
		return &kterrors.IndexingError{SessionID: sessionId.String(), TopicID: topicId, Err: err}
	}

	state.Indexed = true
	if err := uow.TopicStateRepository().Update(ctx, state); err != nil {
		return &kterrors.IndexingError{SessionID: sessionId.String(), TopicID: topicId, Err: err}
	}

	s.sysLogger.Info("indexer", "topic indexed", map[string]interface{}{
		"session_id": sessionId.String(),
		"topic_id":   topicId,
		"version":    state.FactVersion,
		"chunks":     len(units),
	})
	return nil
}

// IndexPending retries every completed-but-unindexed topic of a session. Each
// incoming event therefore also drains earlier failures.
func (s *indexerService) IndexPending(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	states, err := uow.TopicStateRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
	)
	if err != nil {
		return err
	}

	var firstErr error
	for _, state := range states {
		if !state.IsComplete() || state.Indexed {
			continue
		}
		if err := s.IndexTopic(ctx, sessionId, state.TopicId); err != nil {
			s.sysLogger.Error("indexer", "pending topic re-index failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"topic_id":   state.TopicId,
				"error":      err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// buildDocument asks the model for a structured summary of the topic's facts
// and falls back to a plain concatenation so indexing never blocks on the LLM.
func (s *indexerService) buildDocument(ctx context.Context, state *entity.TopicState, facts []entity.Fact) string {
	var factList strings.Builder
	for _, f := range facts {
		factList.WriteString(fmt.Sprintf("- [%s] %s\n", f.AspectKey, f.Statement))
	}

	prompt := fmt.Sprintf(`Write a concise knowledge-base article for the topic %q from these verified facts.
Keep every technical detail, do not invent anything, plain prose with short headings.

Facts:
%s`, state.TopicName, factList.String())

	summary, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil || strings.TrimSpace(summary) == "" {
		s.sysLogger.Warn("indexer", "summary generation failed, using raw facts", map[string]interface{}{
			"session_id": state.SessionId.String(),
			"topic_id":   state.TopicId,
		})
		return fmt.Sprintf("Topic: %s\n\n%s", state.TopicName, factList.String())
	}
	return summary
}

// unitId derives a stable vector id: re-indexing the same fact-set version is
// an overwrite, never a duplicate.
func unitId(sessionId uuid.UUID, topicId string, factVersion, chunkIndex int) uuid.UUID {
	name := fmt.Sprintf("%s/%s/v%d/%d", sessionId, topicId, factVersion, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}
