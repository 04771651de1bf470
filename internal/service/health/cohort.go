package health

import "github.com/ignite/hcp-engage/internal/domain"

// AggregateCohort reduces per-profile classifications to per-channel status
// distributions and picks the dominant problem status for the cohort.
func AggregateCohort(profiles []domain.HCPProfile, t Thresholds) domain.CohortHealth {
	out := domain.CohortHealth{ProfileCount: len(profiles)}
	if len(profiles) == 0 {
		return out
	}

	counts := make(map[domain.Channel]map[domain.HealthStatus]int)
	issueCounts := map[domain.HealthStatus]int{}

	for i := range profiles {
		for _, h := range ClassifyProfile(&profiles[i], t) {
			if counts[h.Channel] == nil {
				counts[h.Channel] = make(map[domain.HealthStatus]int)
			}
			counts[h.Channel][h.Status]++
			switch h.Status {
			case domain.HealthBlocked, domain.HealthDeclining, domain.HealthDark:
				issueCounts[h.Status]++
			}
		}
	}

	for _, ch := range domain.AllChannels() {
		byStatus, ok := counts[ch]
		if !ok {
			continue
		}
		total := 0
		for _, n := range byStatus {
			total += n
		}
		dist := domain.ChannelStatusDistribution{
			Channel: ch,
			Percent: make(map[domain.HealthStatus]float64, len(byStatus)),
		}
		for status, n := range byStatus {
			dist.Percent[status] = float64(n) / float64(total) * 100
		}
		out.Distributions = append(out.Distributions, dist)
	}

	// Most frequent problem status wins; ties resolve in severity order
	// blocked > declining > dark so the worst issue surfaces first.
	best := 0
	for _, status := range []domain.HealthStatus{domain.HealthBlocked, domain.HealthDeclining, domain.HealthDark} {
		if n := issueCounts[status]; n > best {
			best = n
			out.PrimaryIssue = status
		}
	}
	return out
}
