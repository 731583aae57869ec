package coverage

import (
	"testing"
	"time"

	"kt-assistant-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func state(topicId string, score int, complete bool) *entity.TopicState {
	st := &entity.TopicState{TopicId: topicId, Score: score}
	if complete {
		now := time.Now()
		st.CompletedAt = &now
	}
	return st
}

func TestNextFocusPicksLowestScore(t *testing.T) {
	catalog := DefaultCatalog()
	states := map[string]*entity.TopicState{
		"t1": state("t1", 66, false),
		"t2": state("t2", 33, false),
		"t3": state("t3", 50, false),
	}

	focus := NextFocus(catalog, states, nil)
	require.NotNil(t, focus)
	assert.Equal(t, "t2", focus.TopicId)
	assert.Equal(t, 33, focus.Score)
}

func TestNextFocusTieBreaksByDeclarationOrder(t *testing.T) {
	catalog := DefaultCatalog()
	states := map[string]*entity.TopicState{
		"t1": state("t1", 40, false),
		"t2": state("t2", 40, false),
		"t3": state("t3", 40, false),
	}

	focus := NextFocus(catalog, states, nil)
	require.NotNil(t, focus)
	assert.Equal(t, "t1", focus.TopicId)
}

func TestNextFocusSkipsCompletedTopics(t *testing.T) {
	catalog := DefaultCatalog()
	states := map[string]*entity.TopicState{
		"t1": state("t1", 100, true),
		"t2": state("t2", 85, true),
		"t3": state("t3", 90, false),
	}

	focus := NextFocus(catalog, states, nil)
	require.NotNil(t, focus)
	assert.Equal(t, "t3", focus.TopicId)
}

func TestNextFocusNilWhenAllComplete(t *testing.T) {
	catalog := DefaultCatalog()
	states := map[string]*entity.TopicState{
		"t1": state("t1", 100, true),
		"t2": state("t2", 100, true),
		"t3": state("t3", 90, true),
	}

	assert.Nil(t, NextFocus(catalog, states, nil))
}

func TestNextFocusMissingAspectsInDeclarationOrder(t *testing.T) {
	catalog := DefaultCatalog()
	states := map[string]*entity.TopicState{
		"t1": state("t1", 33, false),
		"t2": state("t2", 100, true),
		"t3": state("t3", 100, true),
	}
	factsByTopic := map[string][]entity.Fact{
		"t1": {fact("t1", "purpose", 1.0, 0)},
	}

	focus := NextFocus(catalog, states, factsByTopic)
	require.NotNil(t, focus)
	require.Len(t, focus.MissingAspects, 2)
	assert.Equal(t, "definition", focus.MissingAspects[0].Key)
	assert.Equal(t, "scope", focus.MissingAspects[1].Key)
}

func TestNextFocusDeterministic(t *testing.T) {
	catalog := DefaultCatalog()
	states := map[string]*entity.TopicState{
		"t1": state("t1", 20, false),
		"t2": state("t2", 20, false),
		"t3": state("t3", 80, false),
	}

	first := NextFocus(catalog, states, nil)
	for i := 0; i < 20; i++ {
		again := NextFocus(catalog, states, nil)
		require.NotNil(t, again)
		assert.Equal(t, first.TopicId, again.TopicId)
	}
}
