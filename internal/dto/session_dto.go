package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id       uuid.UUID          `json:"id"`
	Greeting string             `json:"greeting"`
	Topics   []TopicCoverageDTO `json:"topics"`
}

type SubmitTurnRequest struct {
	Text string `json:"text" validate:"required"`
}

type TopicCoverageDTO struct {
	TopicId        string   `json:"topic_id"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	Score          int      `json:"score"`
	MissingAspects []string `json:"missing_aspects,omitempty"`
	FactCount      int      `json:"fact_count"`
	Indexed        bool     `json:"indexed"`
}

type FocusDTO struct {
	TopicId        string   `json:"topic_id"`
	TopicName      string   `json:"topic_name"`
	MissingAspects []string `json:"missing_aspects,omitempty"`
}

type SubmitTurnResponse struct {
	SessionId         uuid.UUID          `json:"session_id"`
	SessionStatus     string             `json:"session_status"`
	TurnIndex         int                `json:"turn_index"`
	Question          string             `json:"question"`
	ExtractedFacts    int                `json:"extracted_facts"`
	OverallConfidence int                `json:"overall_confidence"`
	Topics            []TopicCoverageDTO `json:"topics"`
	Focus             *FocusDTO          `json:"focus,omitempty"`
}

type CoverageResponse struct {
	SessionId         uuid.UUID          `json:"session_id"`
	SessionStatus     string             `json:"session_status"`
	OverallConfidence int                `json:"overall_confidence"`
	Complete          bool               `json:"complete"`
	Searchable        bool               `json:"searchable"`
	Topics            []TopicCoverageDTO `json:"topics"`
}

type GetMessagesResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	TurnIndex int       `json:"turn_index"`
	CreatedAt time.Time `json:"created_at"`
}

type UploadDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" validate:"required"`
}

type UploadDocumentResponse struct {
	SessionId         uuid.UUID          `json:"session_id"`
	ExtractedFacts    int                `json:"extracted_facts"`
	OverallConfidence int                `json:"overall_confidence"`
	Topics            []TopicCoverageDTO `json:"topics"`
}

type SearchRequest struct {
	Query   string `json:"query" validate:"required"`
	TopicId string `json:"topic_id,omitempty"`
	Limit   int    `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
}

type SearchResultDTO struct {
	TopicId    string  `json:"topic_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type SearchResponse struct {
	SessionId uuid.UUID         `json:"session_id"`
	Results   []SearchResultDTO `json:"results"`
}

type ReportResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Report    string    `json:"report"`
}

// Event payloads carried on the in-process bus.

type TopicCompletedEvent struct {
	SessionId   uuid.UUID `json:"session_id"`
	TopicId     string    `json:"topic_id"`
	FactVersion int       `json:"fact_version"`
}

type SessionCompletedEvent struct {
	SessionId uuid.UUID `json:"session_id"`
}
