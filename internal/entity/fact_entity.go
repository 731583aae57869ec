package entity

import (
	"time"

	"github.com/google/uuid"
)

// Fact is a single immutable piece of extracted knowledge. Corrections are new
// facts that supersede older ones through SupersedeKey, never in-place edits.
type Fact struct {
	Id           uuid.UUID
	SessionId    uuid.UUID
	TopicId      string
	AspectKey    string
	SupersedeKey string
	Statement    string
	Payload      map[string]string
	Provenance   string
	TurnIndex    int
	Weight       float64
	CreatedAt    time.Time
}

// DedupeKey identifies the slot this fact occupies when superseding. Facts
// without an explicit key never supersede each other.
func (f *Fact) DedupeKey() string {
	if f.SupersedeKey != "" {
		return f.TopicId + "/" + f.AspectKey + "/" + f.SupersedeKey
	}
	return f.Id.String()
}
