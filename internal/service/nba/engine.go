package nba

import (
	"fmt"
	"sort"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
)

// Config tunes the decision engine.
type Config struct {
	PrioritizeOpportunities bool    `yaml:"prioritize_opportunities"`
	AddressBlocked          bool    `yaml:"address_blocked"`
	ReEngageThresholdDays   int     `yaml:"re_engage_threshold_days"`
	MinConfidenceThreshold  float64 `yaml:"min_confidence_threshold"`
}

// DefaultConfig returns the standard engine tuning.
func DefaultConfig() Config {
	return Config{
		PrioritizeOpportunities: true,
		AddressBlocked:          true,
		ReEngageThresholdDays:   60,
		MinConfidenceThreshold:  40,
	}
}

// Decide produces the next best action for one profile given its channel
// health list. Pure function; healths must carry one entry per channel in
// the profile's snapshot order.
func Decide(p *domain.HCPProfile, healths []domain.ChannelHealth, cfg Config) domain.NextBestAction {
	nba := domain.NextBestAction{
		HCPID:         p.ID,
		ChannelHealth: healths,
		GeneratedAt:   time.Now(),
	}

	byChannel := make(map[domain.Channel]domain.ChannelHealth, len(healths))
	for _, h := range healths {
		byChannel[h.Channel] = h
	}

	// Stated preference stuck on a blocked channel gets addressed before
	// anything else: move the relationship to the best working channel.
	if pref, ok := byChannel[p.PreferredChannel]; ok && cfg.AddressBlocked && pref.Status == domain.HealthBlocked {
		if alt, found := bestAlternative(healths, p.PreferredChannel); found {
			nba.RecommendedChannel = alt.Channel
			nba.ActionType = domain.ActionReachOut
			nba.Confidence = 70
			nba.Urgency = domain.UrgencyHigh
			nba.Reasoning = fmt.Sprintf("preferred channel %s is blocked; shifting outreach to %s",
				p.PreferredChannel, alt.Channel)
			nba.Metrics = metricsFor(alt)
			finishDecision(&nba, p, timingFor(nba.Urgency))
			return nba
		}
	}

	ranked := rankChannels(healths, cfg)
	if len(ranked) == 0 {
		nba.RecommendedChannel = p.PreferredChannel
		nba.ActionType = domain.ActionReachOut
		nba.Confidence = 45
		nba.Urgency = domain.UrgencyLow
		nba.Reasoning = "no engagement history on any channel; starting with the stated preference"
		finishDecision(&nba, p, timingFor(nba.Urgency))
		return nba
	}

	top := ranked[0]
	mapStatusToAction(&nba, p, top, ranked, cfg)
	finishDecision(&nba, p, timingFor(nba.Urgency))
	return nba
}

// rankChannels orders channels for selection: opportunity first (when
// configured), declining next, then everything else by descending score.
// The sort is stable so ties keep snapshot order.
func rankChannels(healths []domain.ChannelHealth, cfg Config) []domain.ChannelHealth {
	ranked := make([]domain.ChannelHealth, len(healths))
	copy(ranked, healths)

	group := func(h domain.ChannelHealth) int {
		switch {
		case cfg.PrioritizeOpportunities && h.Status == domain.HealthOpportunity:
			return 0
		case h.Status == domain.HealthDeclining:
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		gi, gj := group(ranked[i]), group(ranked[j])
		if gi != gj {
			return gi < gj
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func mapStatusToAction(nba *domain.NextBestAction, p *domain.HCPProfile, top domain.ChannelHealth, ranked []domain.ChannelHealth, cfg Config) {
	nba.RecommendedChannel = top.Channel
	nba.Metrics = metricsFor(top)

	switch top.Status {
	case domain.HealthOpportunity:
		nba.ActionType = domain.ActionExpand
		nba.Confidence = min2(90, top.Score+15)
		nba.Urgency = domain.UrgencyHigh
		nba.Reasoning = fmt.Sprintf("%s shows high affinity (%.0f) with little outreach; expand presence", top.Channel, top.Score)

	case domain.HealthDeclining:
		nba.ActionType = domain.ActionReEngage
		nba.Confidence = 75
		nba.Urgency = domain.UrgencyHigh
		if top.LastContactDays != nil && *top.LastContactDays > cfg.ReEngageThresholdDays {
			nba.Reasoning = fmt.Sprintf("%s has gone quiet for %d days; re-engage before the relationship lapses", top.Channel, *top.LastContactDays)
		} else {
			nba.Reasoning = fmt.Sprintf("%s engagement is fading; re-engage while the relationship is warm", top.Channel)
		}

	case domain.HealthBlocked:
		if alt, found := bestAlternative(ranked, top.Channel); found {
			nba.RecommendedChannel = alt.Channel
			nba.ActionType = domain.ActionReachOut
			nba.Confidence = 70
			nba.Urgency = domain.UrgencyMedium
			nba.Reasoning = fmt.Sprintf("%s is blocked; trying %s instead", top.Channel, alt.Channel)
			nba.Metrics = metricsFor(alt)
		} else {
			nba.ActionType = domain.ActionReduceFrequency
			nba.Confidence = 60
			nba.Urgency = domain.UrgencyMedium
			nba.Reasoning = fmt.Sprintf("%s is blocked and no alternative channel is working; back off frequency", top.Channel)
		}

	case domain.HealthActive:
		nba.Confidence = min2(95, top.Score+20)
		nba.Urgency = domain.UrgencyMedium
		if top.LastContactDays != nil && *top.LastContactDays < 14 {
			nba.ActionType = domain.ActionFollowUp
			nba.Reasoning = fmt.Sprintf("recent %s contact is landing; follow up on the open thread", top.Channel)
		} else {
			nba.ActionType = domain.ActionMaintain
			nba.Reasoning = fmt.Sprintf("%s is healthy; keep the current cadence", top.Channel)
		}

	default: // dark
		if sub, found := bestEngagedChannel(ranked); found {
			mapStatusToAction(nba, p, sub, ranked, cfg)
			return
		}
		nba.RecommendedChannel = p.PreferredChannel
		nba.ActionType = domain.ActionReachOut
		nba.Confidence = 45
		nba.Urgency = domain.UrgencyLow
		nba.Reasoning = "all channels are dark; falling back to the stated preference"
		if pref := p.Engagement(p.PreferredChannel); pref != nil {
			nba.Metrics = domain.NBAMetrics{
				Score: pref.AffinityScore, ResponseRate: pref.ResponseRate,
				TotalTouches: pref.TotalTouches, DaysSinceContact: pref.DaysSinceContact,
			}
		}
	}
}

// finishDecision applies the preference boost, clamps confidence and stamps
// the suggested timing.
func finishDecision(nba *domain.NextBestAction, p *domain.HCPProfile, timing string) {
	if nba.RecommendedChannel == p.PreferredChannel && nba.RecommendedChannel != "" {
		nba.Confidence += 10
		nba.Reasoning += "; matches the HCP's stated channel preference"
	}
	if nba.Confidence > 100 {
		nba.Confidence = 100
	}
	if nba.Confidence < 0 {
		nba.Confidence = 0
	}
	nba.SuggestedTiming = timing
}

// bestAlternative returns the highest-scored channel that is neither blocked
// nor dark, excluding the given channel.
func bestAlternative(healths []domain.ChannelHealth, exclude domain.Channel) (domain.ChannelHealth, bool) {
	var best domain.ChannelHealth
	found := false
	for _, h := range healths {
		if h.Channel == exclude || h.Status == domain.HealthBlocked || h.Status == domain.HealthDark {
			continue
		}
		if !found || h.Score > best.Score {
			best = h
			found = true
		}
	}
	return best, found
}

// bestEngagedChannel returns the highest-scored active or opportunity channel.
func bestEngagedChannel(healths []domain.ChannelHealth) (domain.ChannelHealth, bool) {
	var best domain.ChannelHealth
	found := false
	for _, h := range healths {
		if h.Status != domain.HealthActive && h.Status != domain.HealthOpportunity {
			continue
		}
		if !found || h.Score > best.Score {
			best = h
			found = true
		}
	}
	return best, found
}

func metricsFor(h domain.ChannelHealth) domain.NBAMetrics {
	return domain.NBAMetrics{
		Score:            h.Score,
		ResponseRate:     h.ResponseRate,
		TotalTouches:     h.TotalTouches,
		DaysSinceContact: h.LastContactDays,
	}
}

func timingFor(u domain.Urgency) string {
	switch u {
	case domain.UrgencyHigh:
		return "within_48_hours"
	case domain.UrgencyMedium:
		return "within_week"
	default:
		return "this_month"
	}
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
