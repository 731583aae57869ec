package implementation

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/mapper"
	"kt-assistant-be/internal/model"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FactMapper
}

func NewFactRepository(db *gorm.DB) contract.FactRepository {
	return &FactRepositoryImpl{
		db:     db,
		mapper: mapper.NewFactMapper(),
	}
}

func (r *FactRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FactRepositoryImpl) Create(ctx context.Context, fact *entity.Fact) error {
	m := r.mapper.ToModel(fact)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*fact = *r.mapper.ToEntity(m)
	return nil
}

func (r *FactRepositoryImpl) CreateBulk(ctx context.Context, facts []*entity.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	models := make([]*model.Fact, len(facts))
	for i, f := range facts {
		models[i] = r.mapper.ToModel(f)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*facts[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *FactRepositoryImpl) DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("session_id = ?", sessionId).Delete(&model.Fact{}).Error
}

func (r *FactRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Fact, error) {
	var models []*model.Fact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *FactRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Fact{}), specs...)
	err := query.Count(&count).Error
	return count, err
}
