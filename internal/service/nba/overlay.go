package nba

import (
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/saturation"
)

// ApplyOverlay adjusts a base recommendation with message-saturation data.
// A nil summary or one without themes leaves the recommendation untouched.
func ApplyOverlay(nba domain.NextBestAction, summary *domain.SaturationSummary) domain.NextBestAction {
	if summary == nil || len(summary.Themes) == 0 {
		return nba
	}

	for _, theme := range summary.Themes {
		nba.ThemeWarnings = append(nba.ThemeWarnings, saturation.ClassifyTheme(theme, summary.Themes))
	}

	if adj := saturation.ConfidenceAdjustment(summary.MeanMSI); adj != 0 {
		nba.Confidence += adj
		if adj < 0 {
			nba.Reasoning += fmt.Sprintf("; confidence reduced %.0f for message saturation (mean MSI %.0f)", -adj, summary.MeanMSI)
		} else {
			nba.Reasoning += fmt.Sprintf("; confidence raised %.0f, messaging headroom available (mean MSI %.0f)", adj, summary.MeanMSI)
		}
	}
	if nba.Confidence > 100 {
		nba.Confidence = 100
	}
	if nba.Confidence < 0 {
		nba.Confidence = 0
	}

	if summary.OverallRisk == domain.RiskCritical && nba.Urgency != domain.UrgencyHigh {
		nba.Urgency = domain.UrgencyHigh
		nba.SuggestedTiming = "within_48_hours"
		nba.Reasoning += "; urgency escalated, HCP is critically saturated"
	}

	return nba
}
