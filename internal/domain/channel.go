package domain

// Channel identifies one of the 6 supported outreach channels.
type Channel string

const (
	ChannelEmail      Channel = "email"
	ChannelPhone      Channel = "phone"
	ChannelRepVisit   Channel = "rep_visit"
	ChannelWebinar    Channel = "webinar"
	ChannelConference Channel = "conference"
	ChannelDigitalAd  Channel = "digital_ad"
)

// AllChannels returns all 6 supported outreach channels.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelPhone, ChannelRepVisit, ChannelWebinar, ChannelConference, ChannelDigitalAd}
}

// IsValid reports whether c is one of the 6 supported channels.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelPhone, ChannelRepVisit, ChannelWebinar, ChannelConference, ChannelDigitalAd:
		return true
	}
	return false
}

// ActionType enumerates the recommendable outreach actions.
type ActionType string

const (
	ActionReachOut        ActionType = "reach_out"
	ActionFollowUp        ActionType = "follow_up"
	ActionReEngage        ActionType = "re_engage"
	ActionExpand          ActionType = "expand"
	ActionMaintain        ActionType = "maintain"
	ActionReduceFrequency ActionType = "reduce_frequency"
)

// Urgency ranks how soon a recommended action should happen.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// UrgencyRank returns the sort rank for an urgency (high sorts first).
func UrgencyRank(u Urgency) int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	default:
		return 2
	}
}
