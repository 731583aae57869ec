package contract

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FactRepository interface {
	Create(ctx context.Context, fact *entity.Fact) error
	CreateBulk(ctx context.Context, facts []*entity.Fact) error
	DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Fact, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
