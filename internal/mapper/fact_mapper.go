package mapper

import (
	"encoding/json"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type FactMapper struct{}

func NewFactMapper() *FactMapper {
	return &FactMapper{}
}

func (m *FactMapper) ToEntity(f *model.Fact) *entity.Fact {
	if f == nil {
		return nil
	}

	payload := map[string]string{}
	if len(f.Payload) > 0 {
		// Malformed stored payload degrades to empty, never fails a read.
		_ = json.Unmarshal(f.Payload, &payload)
	}

	return &entity.Fact{
		Id:           f.Id,
		SessionId:    f.SessionId,
		TopicId:      f.TopicId,
		AspectKey:    f.AspectKey,
		SupersedeKey: f.SupersedeKey,
		Statement:    f.Statement,
		Payload:      payload,
		Provenance:   f.Provenance,
		TurnIndex:    f.TurnIndex,
		Weight:       f.Weight,
		CreatedAt:    f.CreatedAt,
	}
}

func (m *FactMapper) ToModel(f *entity.Fact) *model.Fact {
	if f == nil {
		return nil
	}

	var payload datatypes.JSON
	if len(f.Payload) > 0 {
		if b, err := json.Marshal(f.Payload); err == nil {
			payload = b
		}
	}

	return &model.Fact{
		Id:           f.Id,
		SessionId:    f.SessionId,
		TopicId:      f.TopicId,
		AspectKey:    f.AspectKey,
		SupersedeKey: f.SupersedeKey,
		Statement:    f.Statement,
		Payload:      payload,
		Provenance:   f.Provenance,
		TurnIndex:    f.TurnIndex,
		Weight:       f.Weight,
		CreatedAt:    f.CreatedAt,
	}
}

func (m *FactMapper) ToEntities(models []*model.Fact) []*entity.Fact {
	entities := make([]*entity.Fact, len(models))
	for i, f := range models {
		entities[i] = m.ToEntity(f)
	}
	return entities
}
