package domain

import "time"

// RiskLevel grades message-saturation risk for a theme or an HCP overall.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AdoptionStage models where an HCP sits in the product adoption funnel.
// The stage modifies how quickly repeated messaging saturates.
type AdoptionStage string

const (
	StageUnaware    AdoptionStage = "unaware"
	StageAware      AdoptionStage = "aware"
	StageConsidering AdoptionStage = "considering"
	StageTrialing   AdoptionStage = "trialing"
	StageAdopted    AdoptionStage = "adopted"
)

// ThemeExposure is the raw exposure history for one message theme and one HCP.
type ThemeExposure struct {
	HCPID           string        `json:"hcp_id" db:"hcp_id"`
	Theme           string        `json:"theme" db:"theme"`
	TouchCount30d   int           `json:"touch_count_30d" db:"touch_count_30d"`
	ChannelsUsed    []Channel     `json:"channels_used"`
	LastExposureAt  *time.Time    `json:"last_exposure_at" db:"last_exposure_at"`
	AdoptionStage   AdoptionStage `json:"adoption_stage" db:"adoption_stage"`
}

// ThemeSaturation is the computed saturation state for one theme.
type ThemeSaturation struct {
	Theme string    `json:"theme"`
	MSI   float64   `json:"msi"`
	Risk  RiskLevel `json:"risk"`
}

// SaturationSummary is the per-HCP view consumed by the NBA overlay.
type SaturationSummary struct {
	HCPID       string            `json:"hcp_id"`
	Themes      []ThemeSaturation `json:"themes"`
	MeanMSI     float64           `json:"mean_msi"`
	OverallRisk RiskLevel         `json:"overall_risk"`
}

// ThemeGuidance classifies what to do with one theme given its MSI.
type ThemeGuidance string

const (
	GuidanceDoNotPush             ThemeGuidance = "do_not_push"
	GuidanceShiftToAlternative    ThemeGuidance = "shift_to_alternative"
	GuidanceApproachingSaturation ThemeGuidance = "approaching_saturation"
	GuidanceSafeToReinforce       ThemeGuidance = "safe_to_reinforce"
	GuidanceUnderexposed          ThemeGuidance = "underexposed"
)

// ThemeWarning is one per-theme advisory attached to an NBA by the overlay.
type ThemeWarning struct {
	Theme        string        `json:"theme"`
	MSI          float64       `json:"msi"`
	Guidance     ThemeGuidance `json:"guidance"`
	Severity     string        `json:"severity"` // critical, warning, info
	Alternatives []string      `json:"alternatives,omitempty"`
}

// PausePoint is one sample on a projected saturation decay curve.
type PausePoint struct {
	Day int     `json:"day"`
	MSI float64 `json:"msi"`
}

// PauseProjection is the result of simulating a theme messaging pause.
// OptimalPauseDays is the pause length that would bring the theme down to
// TargetMSI; zero when it is already at or below target.
type PauseProjection struct {
	Theme            string       `json:"theme"`
	CurrentMSI       float64      `json:"current_msi"`
	ProjectedMSI     float64      `json:"projected_msi"`
	PauseDays        int          `json:"pause_days"`
	TargetMSI        float64      `json:"target_msi"`
	OptimalPauseDays int          `json:"optimal_pause_days"`
	Curve            []PausePoint `json:"curve"`
}
