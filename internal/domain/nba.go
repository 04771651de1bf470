package domain

import "time"

// NBAMetrics carries the engagement numbers behind a recommendation.
type NBAMetrics struct {
	Score            float64 `json:"score"`
	ResponseRate     float64 `json:"response_rate"`
	TotalTouches     int     `json:"total_touches"`
	DaysSinceContact *int    `json:"days_since_contact"`
}

// NextBestAction is the single recommended channel/action for one HCP at a
// point in time. Ephemeral unless a caller persists it.
type NextBestAction struct {
	HCPID              string          `json:"hcp_id"`
	RecommendedChannel Channel         `json:"recommended_channel"`
	ActionType         ActionType      `json:"action_type"`
	Confidence         float64         `json:"confidence"`
	Reasoning          string          `json:"reasoning"`
	Urgency            Urgency         `json:"urgency"`
	SuggestedTiming    string          `json:"suggested_timing"`
	ChannelHealth      []ChannelHealth `json:"channel_health,omitempty"`
	Metrics            NBAMetrics      `json:"metrics"`
	ThemeWarnings      []ThemeWarning  `json:"theme_warnings,omitempty"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// NBASummary is the dashboard roll-up over a batch of recommendations.
type NBASummary struct {
	TotalActions  int                `json:"total_actions"`
	AvgConfidence float64            `json:"avg_confidence"`
	ByUrgency     map[Urgency]int    `json:"by_urgency"`
	ByActionType  map[ActionType]int `json:"by_action_type"`
	ByChannel     map[Channel]int    `json:"by_channel"`
}
