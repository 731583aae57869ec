package entity

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	Id                uuid.UUID
	Status            string
	OverallConfidence int
	TurnCount         int
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	DeletedAt         *time.Time
	IsDeleted         bool
}
