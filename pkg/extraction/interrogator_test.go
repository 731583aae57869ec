package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kt-assistant-be/pkg/coverage"

	"github.com/stretchr/testify/assert"
)

func TestNextQuestionNilFocus(t *testing.T) {
	q := NewInterrogator(&fakeLLM{}, "")

	question := q.NextQuestion(context.Background(), nil, nil)
	assert.Contains(t, question, "covered everything")
}

func TestNextQuestionUsesModelResponse(t *testing.T) {
	provider := &fakeLLM{responses: []string{"How does the service handle a Kafka outage?"}}
	q := NewInterrogator(provider, "llama3")

	focus := &coverage.Focus{
		TopicId:        "t3",
		TopicName:      "Operations & Reliability",
		Score:          40,
		MissingAspects: []coverage.SubAspect{{Key: "failure_cases", Name: "Failure Cases"}},
	}

	question := q.NextQuestion(context.Background(), focus, nil)
	assert.Equal(t, "How does the service handle a Kafka outage?", question)
}

func TestNextQuestionFallsBackOnModelError(t *testing.T) {
	provider := &fakeLLM{errs: []error{errors.New("model unavailable")}}
	q := NewInterrogator(provider, "llama3")

	focus := &coverage.Focus{
		TopicId:   "t2",
		TopicName: "Architecture & Data Flow",
		Score:     20,
		MissingAspects: []coverage.SubAspect{
			{Key: "dependencies", Name: "Dependencies"},
		},
	}

	question := q.NextQuestion(context.Background(), focus, nil)
	assert.NotEmpty(t, question)
	assert.Contains(t, question, "Architecture & Data Flow")
	assert.Contains(t, strings.ToLower(question), "dependencies")
}

func TestNextQuestionFallsBackOnBlankResponse(t *testing.T) {
	provider := &fakeLLM{responses: []string{"   "}}
	q := NewInterrogator(provider, "")

	focus := &coverage.Focus{TopicId: "t1", TopicName: "System Overview", Score: 0}

	question := q.NextQuestion(context.Background(), focus, nil)
	assert.True(t, strings.Contains(question, "System Overview"))
}
