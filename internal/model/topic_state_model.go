package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TopicState struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	TopicId     string         `gorm:"type:varchar(32);not null;index"`
	TopicName   string         `gorm:"type:varchar(255);not null"`
	Score       int            `gorm:"default:0"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending'"`
	CompletedAt *time.Time     // set once, never cleared
	Indexed     bool           `gorm:"default:false"`
	FactVersion int            `gorm:"default:0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (TopicState) TableName() string {
	return "topic_states"
}
