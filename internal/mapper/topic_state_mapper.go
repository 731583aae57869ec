package mapper

import (
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/model"
)

type TopicStateMapper struct{}

func NewTopicStateMapper() *TopicStateMapper {
	return &TopicStateMapper{}
}

func (m *TopicStateMapper) ToEntity(t *model.TopicState) *entity.TopicState {
	if t == nil {
		return nil
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.TopicState{
		Id:          t.Id,
		SessionId:   t.SessionId,
		TopicId:     t.TopicId,
		TopicName:   t.TopicName,
		Score:       t.Score,
		Status:      t.Status,
		CompletedAt: t.CompletedAt,
		Indexed:     t.Indexed,
		FactVersion: t.FactVersion,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *TopicStateMapper) ToModel(t *entity.TopicState) *model.TopicState {
	if t == nil {
		return nil
	}

	return &model.TopicState{
		Id:          t.Id,
		SessionId:   t.SessionId,
		TopicId:     t.TopicId,
		TopicName:   t.TopicName,
		Score:       t.Score,
		Status:      t.Status,
		CompletedAt: t.CompletedAt,
		Indexed:     t.Indexed,
		FactVersion: t.FactVersion,
		CreatedAt:   t.CreatedAt,
	}
}
