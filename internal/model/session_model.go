package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Session struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status            string         `gorm:"type:varchar(20);not null;default:'active';index"`
	OverallConfidence int            `gorm:"default:0"`
	TurnCount         int            `gorm:"default:0"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime;index"` // last activity, drives TTL expiry
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Session) TableName() string {
	return "kt_sessions"
}
