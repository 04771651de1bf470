package health

import (
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
)

// Thresholds controls the classification rules. All values are inclusive
// where the rule text says "at least" and exclusive where it says "below".
type Thresholds struct {
	StaleDays                int     `yaml:"stale_days"`
	BlockedResponseRate      float64 `yaml:"blocked_response_rate"`
	BlockedMinTouches        int     `yaml:"blocked_min_touches"`
	OpportunityMinScore      float64 `yaml:"opportunity_min_score"`
	OpportunityMaxTouches    int     `yaml:"opportunity_max_touches"`
	ActiveMinResponseRate    float64 `yaml:"active_min_response_rate"`
	ActiveMaxDaysSinceContact int    `yaml:"active_max_days_since_contact"`
}

// DefaultThresholds returns the standard classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StaleDays:                 90,
		BlockedResponseRate:       2.0,
		BlockedMinTouches:         5,
		OpportunityMinScore:       70,
		OpportunityMaxTouches:     3,
		ActiveMinResponseRate:     10.0,
		ActiveMaxDaysSinceContact: 30,
	}
}

// Classify derives the health status for one channel snapshot. Rules are
// evaluated in priority order; the first match wins:
//
//	1. blocked      — poor response despite enough touches
//	2. opportunity  — high affinity, barely touched
//	3. active       — responding and recently contacted
//	4. declining    — stale, or responding poorly after some touches
//	5. dark         — everything else
func Classify(snap domain.ChannelEngagement, t Thresholds) domain.ChannelHealth {
	h := domain.ChannelHealth{
		Channel:         snap.Channel,
		Score:           snap.AffinityScore,
		LastContactDays: snap.DaysSinceContact,
		TotalTouches:    snap.TotalTouches,
		ResponseRate:    snap.ResponseRate,
	}

	switch {
	case snap.ResponseRate < t.BlockedResponseRate && snap.TotalTouches >= t.BlockedMinTouches:
		h.Status = domain.HealthBlocked
		h.Reasoning = fmt.Sprintf("response rate %.1f%% after %d touches; channel is not landing",
			snap.ResponseRate, snap.TotalTouches)

	case snap.AffinityScore >= t.OpportunityMinScore && snap.TotalTouches < t.OpportunityMaxTouches:
		h.Status = domain.HealthOpportunity
		h.Reasoning = fmt.Sprintf("affinity %.0f with only %d touches; untapped channel",
			snap.AffinityScore, snap.TotalTouches)

	case snap.ResponseRate >= t.ActiveMinResponseRate &&
		snap.DaysSinceContact != nil && *snap.DaysSinceContact <= t.ActiveMaxDaysSinceContact:
		h.Status = domain.HealthActive
		h.Reasoning = fmt.Sprintf("responding at %.1f%%, last contact %d days ago",
			snap.ResponseRate, *snap.DaysSinceContact)

	case (snap.DaysSinceContact != nil && *snap.DaysSinceContact > t.StaleDays) ||
		(snap.ResponseRate < t.ActiveMinResponseRate && snap.TotalTouches > 0):
		h.Status = domain.HealthDeclining
		if snap.DaysSinceContact != nil && *snap.DaysSinceContact > t.StaleDays {
			h.Reasoning = fmt.Sprintf("no contact for %d days", *snap.DaysSinceContact)
		} else {
			h.Reasoning = fmt.Sprintf("response rate %.1f%% is below the active floor", snap.ResponseRate)
		}

	default:
		h.Status = domain.HealthDark
		h.Reasoning = "no meaningful engagement history on this channel"
	}

	return h
}

// ClassifyProfile classifies every engagement snapshot on a profile.
func ClassifyProfile(p *domain.HCPProfile, t Thresholds) []domain.ChannelHealth {
	out := make([]domain.ChannelHealth, 0, len(p.Engagements))
	for _, snap := range p.Engagements {
		out = append(out, Classify(snap, t))
	}
	return out
}
