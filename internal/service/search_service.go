package service

import (
	"context"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/pkg/embedding"
	"kt-assistant-be/pkg/kterrors"

	"github.com/google/uuid"
)

type ISearchService interface {
	Search(ctx context.Context, sessionId uuid.UUID, req *dto.SearchRequest) (*dto.SearchResponse, error)
}

type searchService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	defaultLimit      int
	sysLogger         logger.ILogger
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	defaultLimit int,
	sysLogger logger.ILogger,
) ISearchService {
	return &searchService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		defaultLimit:      defaultLimit,
		sysLogger:         sysLogger,
	}
}

func (s *searchService) Search(ctx context.Context, sessionId uuid.UUID, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	queryEmbedding, err := s.embeddingProvider.Generate(ctx, req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, &kterrors.TransientExternalError{Op: "query embedding", Err: err}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.KnowledgeEmbeddingRepository().SearchSimilar(
		ctx,
		queryEmbedding.Embedding.Values,
		limit,
		sessionId,
		req.TopicId,
	)
	if err != nil {
		return nil, err
	}

	results := make([]dto.SearchResultDTO, len(scored))
	for i, item := range scored {
		results[i] = dto.SearchResultDTO{
			TopicId:    item.Embedding.TopicId,
			ChunkIndex: item.Embedding.ChunkIndex,
			Content:    item.Embedding.Document,
			Similarity: item.Similarity,
		}
	}

	s.sysLogger.Debug("search", "semantic search served", map[string]interface{}{
		"session_id": sessionId.String(),
		"results":    len(results),
	})

	return &dto.SearchResponse{
		SessionId: sessionId,
		Results:   results,
	}, nil
}
