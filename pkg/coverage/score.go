package coverage

import (
	"sort"

	"kt-assistant-be/internal/entity"
)

// EffectiveFacts resolves supersede-by-key: facts sharing a dedupe key are
// reduced to the one from the latest turn. The result is deterministic for the
// same fact set regardless of input order.
func EffectiveFacts(facts []entity.Fact) []entity.Fact {
	ordered := make([]entity.Fact, len(facts))
	copy(ordered, facts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TurnIndex != ordered[j].TurnIndex {
			return ordered[i].TurnIndex < ordered[j].TurnIndex
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].Id.String() < ordered[j].Id.String()
	})

	byKey := make(map[string]int)
	var effective []entity.Fact
	for _, f := range ordered {
		key := f.DedupeKey()
		if idx, exists := byKey[key]; exists {
			effective[idx] = f // later fact replaces the superseded one
			continue
		}
		byKey[key] = len(effective)
		effective = append(effective, f)
	}
	return effective
}

// Score computes the deterministic 0-100 coverage score of one topic. Each
// sub-aspect contributes an equal share of the total, weighted by the highest
// relevance weight among the facts covering it. Duplicate facts for the same
// sub-aspect cannot push the contribution past the per-aspect cap.
func Score(def TopicDefinition, facts []entity.Fact) int {
	if len(def.SubAspects) == 0 || len(facts) == 0 {
		return 0
	}

	best := make(map[string]float64)
	for _, f := range EffectiveFacts(facts) {
		if f.TopicId != def.Id || !def.HasAspect(f.AspectKey) {
			continue
		}
		w := clampWeight(f.Weight)
		if w > best[f.AspectKey] {
			best[f.AspectKey] = w
		}
	}

	var total float64
	for _, a := range def.SubAspects {
		total += best[a.Key]
	}

	score := int(100.0 * total / float64(len(def.SubAspects)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// CoveredAspects returns the sub-aspect keys of def that have at least one
// effective covering fact.
func CoveredAspects(def TopicDefinition, facts []entity.Fact) map[string]bool {
	covered := make(map[string]bool)
	for _, f := range EffectiveFacts(facts) {
		if f.TopicId == def.Id && def.HasAspect(f.AspectKey) && clampWeight(f.Weight) > 0 {
			covered[f.AspectKey] = true
		}
	}
	return covered
}

func clampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
