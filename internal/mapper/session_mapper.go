package mapper

import (
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:                s.Id,
		Status:            s.Status,
		OverallConfidence: s.OverallConfidence,
		TurnCount:         s.TurnCount,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         updatedAt,
		DeletedAt:         deletedAt,
		IsDeleted:         s.DeletedAt.Valid,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	out := &model.Session{
		Id:                s.Id,
		Status:            s.Status,
		OverallConfidence: s.OverallConfidence,
		TurnCount:         s.TurnCount,
		CreatedAt:         s.CreatedAt,
	}
	if s.UpdatedAt != nil {
		out.UpdatedAt = *s.UpdatedAt
	}
	return out
}
