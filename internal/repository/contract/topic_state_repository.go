package contract

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TopicStateRepository interface {
	Create(ctx context.Context, state *entity.TopicState) error
	CreateBulk(ctx context.Context, states []*entity.TopicState) error
	Update(ctx context.Context, state *entity.TopicState) error
	DeleteBySessionIdUnscoped(ctx context.Context, sessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicState, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TopicState, error)
}
