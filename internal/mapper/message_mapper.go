package mapper

import (
	"encoding/json"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	metadata := map[string]interface{}{}
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &metadata)
	}

	return &entity.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  metadata,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var metadata datatypes.JSON
	if len(msg.Metadata) > 0 {
		if b, err := json.Marshal(msg.Metadata); err == nil {
			metadata = b
		}
	}

	return &model.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  metadata,
		CreatedAt: msg.CreatedAt,
	}
}
