package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Fact struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	TopicId      string         `gorm:"type:varchar(32);not null;index"`
	AspectKey    string         `gorm:"type:varchar(64);not null"`
	SupersedeKey string         `gorm:"type:varchar(128)"`
	Statement    string         `gorm:"type:text;not null"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	Provenance   string         `gorm:"type:varchar(64);not null"`
	TurnIndex    int            `gorm:"default:0"`
	Weight       float64        `gorm:"default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Fact) TableName() string {
	return "facts"
}
