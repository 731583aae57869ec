package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySessionID scopes a query to one session's records.
type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ByTopicID scopes a query to one topic within a session.
type ByTopicID struct {
	TopicID string
}

func (s ByTopicID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("topic_id = ?", s.TopicID)
}

// ByStatus filters by lifecycle status.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// LastActivityBefore selects records whose updated_at is older than T.
// The sweeper uses this to find expiry candidates.
type LastActivityBefore struct {
	T time.Time
}

func (s LastActivityBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at < ?", s.T)
}
