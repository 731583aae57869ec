package entity

import (
	"time"

	"github.com/google/uuid"
)

// TopicState tracks how completely one topic of a session is covered by facts.
// CompletedAt is set exactly once; a topic never regresses out of complete.
type TopicState struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	TopicId     string
	TopicName   string
	Score       int
	Status      string
	CompletedAt *time.Time
	Indexed     bool
	FactVersion int
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (t *TopicState) IsComplete() bool {
	return t.CompletedAt != nil
}
