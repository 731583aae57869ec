package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Content   string
	Metadata  map[string]interface{}
	CreatedAt time.Time
}
