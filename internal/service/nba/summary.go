package nba

import (
	"sort"

	"github.com/ignite/hcp-engage/internal/domain"
)

// Prioritize orders recommendations by urgency (high first) then descending
// confidence, stable within equal keys. A positive limit truncates the
// result.
func Prioritize(nbas []domain.NextBestAction, limit int) []domain.NextBestAction {
	out := make([]domain.NextBestAction, len(nbas))
	copy(out, nbas)

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := domain.UrgencyRank(out[i].Urgency), domain.UrgencyRank(out[j].Urgency)
		if ri != rj {
			return ri < rj
		}
		return out[i].Confidence > out[j].Confidence
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summarize reduces a batch of recommendations to dashboard counts. An empty
// batch yields zero counts and zero average confidence.
func Summarize(nbas []domain.NextBestAction) domain.NBASummary {
	s := domain.NBASummary{
		TotalActions: len(nbas),
		ByUrgency:    make(map[domain.Urgency]int),
		ByActionType: make(map[domain.ActionType]int),
		ByChannel:    make(map[domain.Channel]int),
	}
	if len(nbas) == 0 {
		return s
	}

	sum := 0.0
	for _, n := range nbas {
		s.ByUrgency[n.Urgency]++
		s.ByActionType[n.ActionType]++
		s.ByChannel[n.RecommendedChannel]++
		sum += n.Confidence
	}
	s.AvgConfidence = sum / float64(len(nbas))
	return s
}
