package saturation

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
)

// Component weights for the MSI. Frequency dominates; diversity captures the
// "same story everywhere" effect; decay credits quiet time at the same rate
// the pause simulation uses.
const (
	frequencyWeight   = 6.0
	frequencyCap      = 70.0
	diversityWeight   = 5.0
	diversityCap      = 30.0
	DecayPerDay       = 0.4
	FloorMSI          = 5.0
	DefaultTargetMSI  = 40.0
)

// stageModifier scales how quickly repeated messaging saturates an HCP at a
// given adoption stage. Early-stage HCPs fatigue faster.
func stageModifier(s domain.AdoptionStage) float64 {
	switch s {
	case domain.StageUnaware:
		return 1.2
	case domain.StageAware:
		return 1.1
	case domain.StageTrialing:
		return 0.9
	case domain.StageAdopted:
		return 0.8
	default:
		return 1.0
	}
}

// ComputeMSI derives the 0-100 saturation index for one theme exposure as of
// now.
func ComputeMSI(e domain.ThemeExposure) float64 {
	return ComputeMSIAt(e, time.Now())
}

// ComputeMSIAt derives the MSI at a fixed reference time (testable form).
func ComputeMSIAt(e domain.ThemeExposure, now time.Time) float64 {
	freq := math.Min(frequencyCap, float64(e.TouchCount30d)*frequencyWeight)
	div := math.Min(diversityCap, float64(len(e.ChannelsUsed))*diversityWeight)
	raw := freq + div

	if e.LastExposureAt != nil {
		days := now.Sub(*e.LastExposureAt).Hours() / 24
		if days > 0 {
			raw -= days * DecayPerDay
		}
	}
	if raw < 0 {
		raw = 0
	}

	msi := raw * stageModifier(e.AdoptionStage)
	if msi > 100 {
		msi = 100
	}
	return msi
}

// RiskFor maps an MSI value to a risk level.
func RiskFor(msi float64) domain.RiskLevel {
	switch {
	case msi >= 80:
		return domain.RiskCritical
	case msi >= 65:
		return domain.RiskHigh
	case msi >= 50:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// Summarize computes per-theme saturation and the HCP-level roll-up.
func Summarize(hcpID string, exposures []domain.ThemeExposure) domain.SaturationSummary {
	return SummarizeAt(hcpID, exposures, time.Now())
}

// SummarizeAt is the fixed-reference-time form of Summarize.
func SummarizeAt(hcpID string, exposures []domain.ThemeExposure, now time.Time) domain.SaturationSummary {
	out := domain.SaturationSummary{HCPID: hcpID}
	if len(exposures) == 0 {
		out.OverallRisk = domain.RiskLow
		return out
	}

	sum := 0.0
	anyCritical := false
	for _, e := range exposures {
		msi := ComputeMSIAt(e, now)
		risk := RiskFor(msi)
		if risk == domain.RiskCritical {
			anyCritical = true
		}
		out.Themes = append(out.Themes, domain.ThemeSaturation{Theme: e.Theme, MSI: msi, Risk: risk})
		sum += msi
	}
	out.MeanMSI = sum / float64(len(out.Themes))
	out.OverallRisk = RiskFor(out.MeanMSI)
	if anyCritical {
		out.OverallRisk = domain.RiskCritical
	}
	return out
}

// ClassifyTheme grades one theme against the fixed MSI breakpoints.
// alternatives is the full theme list used to suggest lower-MSI substitutes
// when the guidance is shift_to_alternative.
func ClassifyTheme(theme domain.ThemeSaturation, all []domain.ThemeSaturation) domain.ThemeWarning {
	w := domain.ThemeWarning{Theme: theme.Theme, MSI: theme.MSI}
	switch {
	case theme.MSI >= 80:
		w.Guidance = domain.GuidanceDoNotPush
		w.Severity = "critical"
	case theme.MSI >= 65:
		w.Guidance = domain.GuidanceShiftToAlternative
		w.Severity = "warning"
		w.Alternatives = lowestMSIAlternatives(theme.Theme, all, 3)
	case theme.MSI >= 50:
		w.Guidance = domain.GuidanceApproachingSaturation
		w.Severity = "warning"
	case theme.MSI < 20:
		w.Guidance = domain.GuidanceUnderexposed
		w.Severity = "info"
	default:
		w.Guidance = domain.GuidanceSafeToReinforce
		w.Severity = "info"
	}
	return w
}

func lowestMSIAlternatives(exclude string, all []domain.ThemeSaturation, n int) []string {
	var candidates []domain.ThemeSaturation
	for _, t := range all {
		if t.Theme != exclude {
			candidates = append(candidates, t)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].MSI < candidates[j].MSI })
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Theme)
	}
	return out
}

// ScoreModifier returns the additive adjustment callers apply when scoring
// theme-level content. It is not applied to the channel NBA itself.
func ScoreModifier(msi float64) float64 {
	switch {
	case msi >= 80:
		return -50
	case msi >= 65:
		return -30
	case msi >= 50:
		return -15
	case msi < 20:
		return +20
	default:
		return 0
	}
}

// ConfidenceAdjustment returns the aggregate NBA confidence delta for a mean
// MSI across an HCP's themes.
func ConfidenceAdjustment(meanMSI float64) float64 {
	switch {
	case meanMSI >= 70:
		return -20
	case meanMSI >= 55:
		return -10
	case meanMSI >= 40:
		return -5
	case meanMSI < 25:
		return +10
	default:
		return 0
	}
}

// SimulatePause projects a theme's MSI after pausing its messaging for the
// given number of days. Decay is linear at DecayPerDay with a floor of 5;
// the returned curve samples roughly 10 points along the pause.
func SimulatePause(theme string, currentMSI float64, pauseDays int) domain.PauseProjection {
	if pauseDays < 0 {
		pauseDays = 0
	}
	project := func(days int) float64 {
		return math.Max(FloorMSI, currentMSI-DecayPerDay*float64(days))
	}

	proj := domain.PauseProjection{
		Theme:        theme,
		CurrentMSI:   currentMSI,
		ProjectedMSI: project(pauseDays),
		PauseDays:    pauseDays,
	}

	step := pauseDays / 10
	if step < 1 {
		step = 1
	}
	for d := 0; d <= pauseDays; d += step {
		proj.Curve = append(proj.Curve, domain.PausePoint{Day: d, MSI: project(d)})
	}
	if len(proj.Curve) == 0 || proj.Curve[len(proj.Curve)-1].Day != pauseDays {
		proj.Curve = append(proj.Curve, domain.PausePoint{Day: pauseDays, MSI: project(pauseDays)})
	}
	return proj
}

// OptimalPauseDays solves the decay line for the number of pause days needed
// to bring currentMSI down to targetMSI, rounded up. Zero when already at or
// below target.
func OptimalPauseDays(currentMSI, targetMSI float64) int {
	if targetMSI <= 0 {
		targetMSI = DefaultTargetMSI
	}
	if currentMSI <= targetMSI {
		return 0
	}
	return int(math.Ceil((currentMSI - targetMSI) / DecayPerDay))
}
