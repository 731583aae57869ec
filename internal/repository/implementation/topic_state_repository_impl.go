package implementation

import (
	"context"
	"errors"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/mapper"
	"kt-assistant-be/internal/model"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TopicStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TopicStateMapper
}

func NewTopicStateRepository(db *gorm.DB) contract.TopicStateRepository {
	return &TopicStateRepositoryImpl{
		db:     db,
		mapper: mapper.NewTopicStateMapper(),
	}
}

func (r *TopicStateRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TopicStateRepositoryImpl) Create(ctx context.Context, state *entity.TopicState) error {
	m := r.mapper.ToModel(state)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*state = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicStateRepositoryImpl) CreateBulk(ctx context.Context, states []*entity.TopicState) error {
	models := make([]*model.TopicState, len(states))
	for i, s := range states {
		models[i] = r.mapper.ToModel(s)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*states[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *TopicStateRepositoryImpl) Update(ctx context.Context, state *entity.TopicState) error {
	m := r.mapper.ToModel(state)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*state = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicStateRepositoryImpl) DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("session_id = ?", sessionId).Delete(&model.TopicState{}).Error
}

func (r *TopicStateRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicState, error) {
	var m model.TopicState
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TopicStateRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TopicState, error) {
	var models []*model.TopicState
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TopicState, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
