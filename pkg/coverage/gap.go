package coverage

import (
	"kt-assistant-be/internal/entity"
)

// Focus steers the next interview question: the weakest topic and the
// sub-aspects still lacking any covering fact.
type Focus struct {
	TopicId        string
	TopicName      string
	Score          int
	MissingAspects []SubAspect
}

// NextFocus selects the non-complete topic with the lowest score, tie-broken
// by catalog declaration order. Missing sub-aspects are reported in declaration
// order. Returns nil only when every topic is complete. Pure function of the
// given state, no external calls.
func NextFocus(catalog []TopicDefinition, states map[string]*entity.TopicState, factsByTopic map[string][]entity.Fact) *Focus {
	var weakest *TopicDefinition
	weakestScore := 0
	for i := range catalog {
		def := catalog[i]
		state, ok := states[def.Id]
		if !ok || state.IsComplete() {
			continue
		}
		if weakest == nil || state.Score < weakestScore {
			weakest = &catalog[i]
			weakestScore = state.Score
		}
	}
	if weakest == nil {
		return nil
	}

	covered := CoveredAspects(*weakest, factsByTopic[weakest.Id])
	var missing []SubAspect
	for _, a := range weakest.SubAspects {
		if !covered[a.Key] {
			missing = append(missing, a)
		}
	}

	return &Focus{
		TopicId:        weakest.Id,
		TopicName:      weakest.Name,
		Score:          weakestScore,
		MissingAspects: missing,
	}
}
