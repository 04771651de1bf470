package domain

// HealthStatus is the categorical per-channel health classification.
type HealthStatus string

const (
	HealthActive      HealthStatus = "active"
	HealthDeclining   HealthStatus = "declining"
	HealthDark        HealthStatus = "dark"
	HealthBlocked     HealthStatus = "blocked"
	HealthOpportunity HealthStatus = "opportunity"
)

// ChannelHealth is the derived health classification for one channel of one
// HCP. Never persisted; always recomputed from the engagement snapshot.
type ChannelHealth struct {
	Channel         Channel      `json:"channel"`
	Status          HealthStatus `json:"status"`
	Score           float64      `json:"score"`
	LastContactDays *int         `json:"last_contact_days"`
	TotalTouches    int          `json:"total_touches"`
	ResponseRate    float64      `json:"response_rate"`
	Reasoning       string       `json:"reasoning"`
}

// ChannelStatusDistribution is the status breakdown for one channel across a
// cohort, expressed as percentages of the cohort.
type ChannelStatusDistribution struct {
	Channel Channel                  `json:"channel"`
	Percent map[HealthStatus]float64 `json:"percent"`
}

// CohortHealth aggregates channel health over a set of HCP profiles.
type CohortHealth struct {
	ProfileCount  int                         `json:"profile_count"`
	Distributions []ChannelStatusDistribution `json:"distributions"`
	// PrimaryIssue is the most frequent problem status (blocked, declining
	// or dark) across the cohort, empty when the cohort is healthy.
	PrimaryIssue HealthStatus `json:"primary_issue,omitempty"`
}
