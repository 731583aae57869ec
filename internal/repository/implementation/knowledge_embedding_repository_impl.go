package implementation

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/mapper"
	"kt-assistant-be/internal/model"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnowledgeEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeEmbeddingMapper
}

func NewKnowledgeEmbeddingRepository(db *gorm.DB) contract.KnowledgeEmbeddingRepository {
	return &KnowledgeEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeEmbeddingMapper(),
	}
}

func (r *KnowledgeEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// UpsertBulk writes units under their deterministic ids, so re-indexing the
// same topic replaces rows instead of accumulating duplicates.
func (r *KnowledgeEmbeddingRepositoryImpl) UpsertBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.KnowledgeEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(models).Error
}

func (r *KnowledgeEmbeddingRepositoryImpl) DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("session_id = ?", sessionId).Delete(&model.KnowledgeEmbedding{}).Error
}

func (r *KnowledgeEmbeddingRepositoryImpl) DeleteBySessionTopicUnscoped(ctx context.Context, sessionId uuid.UUID, topicId string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("session_id = ? AND topic_id = ?", sessionId, topicId).
		Delete(&model.KnowledgeEmbedding{}).Error
}

// DeleteWhereSessionNotIn purges vectors whose owning session no longer
// exists. An empty id list means no session survives, so everything goes.
func (r *KnowledgeEmbeddingRepositoryImpl) DeleteWhereSessionNotIn(ctx context.Context, sessionIds []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Unscoped()
	if len(sessionIds) > 0 {
		query = query.Where("session_id NOT IN ?", sessionIds)
	} else {
		query = query.Where("1 = 1")
	}
	result := query.Delete(&model.KnowledgeEmbedding{})
	return result.RowsAffected, result.Error
}

func (r *KnowledgeEmbeddingRepositoryImpl) CountWhereSessionNotIn(ctx context.Context, sessionIds []uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.KnowledgeEmbedding{})
	if len(sessionIds) > 0 {
		query = query.Where("session_id NOT IN ?", sessionIds)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *KnowledgeEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEmbedding, error) {
	var models []*model.KnowledgeEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgeEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

type scoredEmbeddingRow struct {
	model.KnowledgeEmbedding
	Similarity float64 `gorm:"column:similarity"`
}

func (r *KnowledgeEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, sessionId uuid.UUID, topicId string) ([]*contract.ScoredKnowledgeEmbedding, error) {
	vec := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Model(&model.KnowledgeEmbedding{}).
		Select("*, 1 - (embedding_value <=> ?) as similarity", vec).
		Where("session_id = ?", sessionId)
	if topicId != "" {
		query = query.Where("topic_id = ?", topicId)
	}

	var rows []scoredEmbeddingRow
	err := query.
		Order("similarity DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]*contract.ScoredKnowledgeEmbedding, len(rows))
	for i := range rows {
		results[i] = &contract.ScoredKnowledgeEmbedding{
			Embedding:  r.mapper.ToEntity(&rows[i].KnowledgeEmbedding),
			Similarity: rows[i].Similarity,
		}
	}
	return results, nil
}
