package domain

import "time"

// HCPTier enumerates prescriber value tiers.
type HCPTier string

const (
	TierA HCPTier = "A"
	TierB HCPTier = "B"
	TierC HCPTier = "C"
)

// HCPProfile represents one healthcare provider as seen by the decision core.
// Profiles are owned by the persistence layer and read-only here.
type HCPProfile struct {
	ID               string              `json:"id" db:"id"`
	ExternalID       string              `json:"external_id" db:"external_id"`
	Name             string              `json:"name" db:"name"`
	Specialty        string              `json:"specialty" db:"specialty"`
	Tier             HCPTier             `json:"tier" db:"tier"`
	PreferredChannel Channel             `json:"preferred_channel" db:"preferred_channel"`
	TerritoryID      string              `json:"territory_id" db:"territory_id"`
	Engagements      []ChannelEngagement `json:"engagements"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// Engagement returns the snapshot for the given channel, or nil if absent.
// A well-formed profile carries exactly one snapshot per channel.
func (p *HCPProfile) Engagement(c Channel) *ChannelEngagement {
	for i := range p.Engagements {
		if p.Engagements[i].Channel == c {
			return &p.Engagements[i]
		}
	}
	return nil
}

// ChannelEngagement is one per-channel engagement snapshot for an HCP.
// AffinityScore is 0-100; ResponseRate is a percentage; DaysSinceContact is
// nil when the HCP has never been contacted on this channel.
type ChannelEngagement struct {
	Channel          Channel  `json:"channel" db:"channel"`
	AffinityScore    float64  `json:"affinity_score" db:"affinity_score"`
	TotalTouches     int      `json:"total_touches" db:"total_touches"`
	ResponseRate     float64  `json:"response_rate" db:"response_rate"`
	DaysSinceContact *int     `json:"days_since_contact" db:"days_since_contact"`
}
