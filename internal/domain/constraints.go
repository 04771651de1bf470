package domain

import "time"

// ProposedAction is one outreach action submitted for constraint validation.
type ProposedAction struct {
	HCPID         string     `json:"hcp_id"`
	Channel       Channel    `json:"channel"`
	ActionType    ActionType `json:"action_type"`
	PlannedDate   time.Time  `json:"planned_date"`
	EstimatedCost float64    `json:"estimated_cost,omitempty"`
	CampaignID    string     `json:"campaign_id,omitempty"`
	RepID         string     `json:"rep_id,omitempty"`
}

// ViolationType names the constraint dimension that produced a violation.
type ViolationType string

const (
	ViolationCapacity     ViolationType = "capacity"
	ViolationContactLimit ViolationType = "contact_limit"
	ViolationCompliance   ViolationType = "compliance"
	ViolationBudget       ViolationType = "budget"
	ViolationTerritory    ViolationType = "territory"
)

// Severity grades a constraint violation. Only error-severity violations
// fail the overall check.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is one itemized constraint failure or caution.
type Violation struct {
	Type     ViolationType `json:"type"`
	Reason   string        `json:"reason"`
	Severity Severity      `json:"severity"`
}

// CapacityStatus reports utilization of the capacity row touched by a check.
type CapacityStatus struct {
	Channel        Channel `json:"channel"`
	RepID          string  `json:"rep_id,omitempty"`
	DailyUsed      int     `json:"daily_used"`
	DailyLimit     int     `json:"daily_limit"`
	WeeklyUsed     int     `json:"weekly_used"`
	WeeklyLimit    int     `json:"weekly_limit"`
	MonthlyUsed    int     `json:"monthly_used"`
	MonthlyLimit   int     `json:"monthly_limit"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// BudgetStatus reports the state of the budget pool touched by a check.
type BudgetStatus struct {
	CampaignID     string  `json:"campaign_id"`
	Channel        Channel `json:"channel"`
	Allocated      float64 `json:"allocated"`
	Spent          float64 `json:"spent"`
	Committed      float64 `json:"committed"`
	Available      float64 `json:"available"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// ConstraintResult is the outcome of validating one proposed action.
// Passed is true iff no violation carries error severity.
type ConstraintResult struct {
	Passed         bool            `json:"passed"`
	Violations     []Violation     `json:"violations"`
	Warnings       []string        `json:"warnings"`
	CapacityStatus *CapacityStatus `json:"capacity_status,omitempty"`
	BudgetStatus   *BudgetStatus   `json:"budget_status,omitempty"`
}

// HasError reports whether any violation carries error severity.
func (r *ConstraintResult) HasError() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ChannelCapacity is a standing capacity row: per channel, optionally scoped
// to one rep, with rolling daily/weekly/monthly counters.
type ChannelCapacity struct {
	ID           string    `json:"id" db:"id"`
	Channel      Channel   `json:"channel" db:"channel"`
	RepID        string    `json:"rep_id,omitempty" db:"rep_id"`
	DailyUsed    int       `json:"daily_used" db:"daily_used"`
	DailyLimit   int       `json:"daily_limit" db:"daily_limit"`
	WeeklyUsed   int       `json:"weekly_used" db:"weekly_used"`
	WeeklyLimit  int       `json:"weekly_limit" db:"weekly_limit"`
	MonthlyUsed  int       `json:"monthly_used" db:"monthly_used"`
	MonthlyLimit int       `json:"monthly_limit" db:"monthly_limit"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Exhausted reports whether any window has no remaining capacity. Windows
// with a zero limit are unbounded.
func (c *ChannelCapacity) Exhausted() bool {
	for _, w := range [][2]int{{c.DailyUsed, c.DailyLimit}, {c.WeeklyUsed, c.WeeklyLimit}, {c.MonthlyUsed, c.MonthlyLimit}} {
		if w[1] > 0 && w[0] >= w[1] {
			return true
		}
	}
	return false
}

// Utilization returns the highest used/limit ratio across the three windows,
// as a percentage. Windows with a zero limit are skipped.
func (c *ChannelCapacity) Utilization() float64 {
	max := 0.0
	for _, w := range [][2]int{{c.DailyUsed, c.DailyLimit}, {c.WeeklyUsed, c.WeeklyLimit}, {c.MonthlyUsed, c.MonthlyLimit}} {
		if w[1] <= 0 {
			continue
		}
		if pct := float64(w[0]) / float64(w[1]) * 100; pct > max {
			max = pct
		}
	}
	return max
}

// ChannelCooldown is a per-channel minimum gap between touches for one HCP.
type ChannelCooldown struct {
	Channel      Channel `json:"channel" db:"channel"`
	CooldownDays int     `json:"cooldown_days" db:"cooldown_days"`
}

// ContactLimits is the standing per-HCP contact governance row.
type ContactLimits struct {
	HCPID            string            `json:"hcp_id" db:"hcp_id"`
	TouchesThisWeek  int               `json:"touches_this_week" db:"touches_this_week"`
	TouchesThisMonth int               `json:"touches_this_month" db:"touches_this_month"`
	MaxPerWeek       int               `json:"max_per_week" db:"max_per_week"`
	MaxPerMonth      int               `json:"max_per_month" db:"max_per_month"`
	LastContactAt    *time.Time        `json:"last_contact_at" db:"last_contact_at"`
	LastChannel      Channel           `json:"last_channel,omitempty" db:"last_channel"`
	Cooldowns        []ChannelCooldown `json:"cooldowns"`
	LastByChannel    map[Channel]time.Time `json:"last_by_channel,omitempty"`
	DoNotContact     bool              `json:"do_not_contact" db:"do_not_contact"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// ComplianceWindow is a blackout range during which contact is prohibited.
// Nil/empty scope fields mean the window applies to all values of that scope.
type ComplianceWindow struct {
	ID          string    `json:"id" db:"id"`
	WindowType  string    `json:"window_type" db:"window_type"`
	Channel     *Channel  `json:"channel,omitempty" db:"channel"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	HCPIDs      []string  `json:"hcp_ids,omitempty"`
	Specialties []string  `json:"specialties,omitempty"`
	Territories []string  `json:"territories,omitempty"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// Covers reports whether the window blocks the given planned date.
func (w *ComplianceWindow) Covers(t time.Time) bool {
	return !t.Before(w.StartDate) && !t.After(w.EndDate)
}

// BudgetAllocation is a standing budget pool per campaign and channel.
type BudgetAllocation struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	Channel    Channel   `json:"channel" db:"channel"`
	Allocated  float64   `json:"allocated" db:"allocated"`
	Spent      float64   `json:"spent" db:"spent"`
	Committed  float64   `json:"committed" db:"committed"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Available returns allocated minus spent minus committed, never negative.
func (b *BudgetAllocation) Available() float64 {
	avail := b.Allocated - b.Spent - b.Committed
	if avail < 0 {
		return 0
	}
	return avail
}

// TerritoryAssignment maps a rep to an HCP.
type TerritoryAssignment struct {
	ID       string `json:"id" db:"id"`
	RepID    string `json:"rep_id" db:"rep_id"`
	HCPID    string `json:"hcp_id" db:"hcp_id"`
	IsActive bool   `json:"is_active" db:"is_active"`
}
