package saturation_test

import (
	"testing"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/saturation"
)

func TestComputeMSIRange(t *testing.T) {
	now := time.Now()
	recent := now.Add(-24 * time.Hour)
	cases := []domain.ThemeExposure{
		{Theme: "efficacy", TouchCount30d: 0},
		{Theme: "efficacy", TouchCount30d: 50, ChannelsUsed: domain.AllChannels(), LastExposureAt: &recent, AdoptionStage: domain.StageUnaware},
		{Theme: "safety", TouchCount30d: 3, ChannelsUsed: []domain.Channel{domain.ChannelEmail}, AdoptionStage: domain.StageAdopted},
	}
	for i, c := range cases {
		msi := saturation.ComputeMSIAt(c, now)
		if msi < 0 || msi > 100 {
			t.Fatalf("case %d: MSI %.1f out of range", i, msi)
		}
	}
}

func TestComputeMSIDecaysWithQuietTime(t *testing.T) {
	now := time.Now()
	recent := now.Add(-24 * time.Hour)
	old := now.Add(-40 * 24 * time.Hour)

	base := domain.ThemeExposure{Theme: "efficacy", TouchCount30d: 8, ChannelsUsed: []domain.Channel{domain.ChannelEmail, domain.ChannelPhone}}

	fresh := base
	fresh.LastExposureAt = &recent
	stale := base
	stale.LastExposureAt = &old

	if saturation.ComputeMSIAt(stale, now) >= saturation.ComputeMSIAt(fresh, now) {
		t.Fatal("older last exposure must yield lower MSI")
	}
}

func TestRiskBreakpoints(t *testing.T) {
	checks := map[float64]domain.RiskLevel{
		85: domain.RiskCritical,
		80: domain.RiskCritical,
		70: domain.RiskHigh,
		55: domain.RiskMedium,
		30: domain.RiskLow,
	}
	for msi, want := range checks {
		if got := saturation.RiskFor(msi); got != want {
			t.Fatalf("RiskFor(%.0f) = %s, want %s", msi, got, want)
		}
	}
}

func TestClassifyThemeGuidance(t *testing.T) {
	all := []domain.ThemeSaturation{
		{Theme: "efficacy", MSI: 82},
		{Theme: "safety", MSI: 70},
		{Theme: "dosing", MSI: 30},
		{Theme: "access", MSI: 10},
		{Theme: "outcomes", MSI: 55},
	}

	w := saturation.ClassifyTheme(all[0], all)
	if w.Guidance != domain.GuidanceDoNotPush || w.Severity != "critical" {
		t.Fatalf("MSI 82: got %s/%s", w.Guidance, w.Severity)
	}

	w = saturation.ClassifyTheme(all[1], all)
	if w.Guidance != domain.GuidanceShiftToAlternative {
		t.Fatalf("MSI 70: got %s", w.Guidance)
	}
	if len(w.Alternatives) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(w.Alternatives))
	}
	if w.Alternatives[0] != "access" {
		t.Fatalf("alternatives must be lowest-MSI first, got %v", w.Alternatives)
	}

	w = saturation.ClassifyTheme(all[4], all)
	if w.Guidance != domain.GuidanceApproachingSaturation {
		t.Fatalf("MSI 55: got %s", w.Guidance)
	}

	w = saturation.ClassifyTheme(all[3], all)
	if w.Guidance != domain.GuidanceUnderexposed {
		t.Fatalf("MSI 10: got %s", w.Guidance)
	}

	w = saturation.ClassifyTheme(all[2], all)
	if w.Guidance != domain.GuidanceSafeToReinforce {
		t.Fatalf("MSI 30: got %s", w.Guidance)
	}
}

func TestScoreModifier(t *testing.T) {
	checks := map[float64]float64{85: -50, 70: -30, 55: -15, 30: 0, 10: +20}
	for msi, want := range checks {
		if got := saturation.ScoreModifier(msi); got != want {
			t.Fatalf("ScoreModifier(%.0f) = %.0f, want %.0f", msi, got, want)
		}
	}
}

func TestConfidenceAdjustment(t *testing.T) {
	checks := map[float64]float64{75: -20, 60: -10, 45: -5, 30: 0, 20: +10}
	for mean, want := range checks {
		if got := saturation.ConfidenceAdjustment(mean); got != want {
			t.Fatalf("ConfidenceAdjustment(%.0f) = %.0f, want %.0f", mean, got, want)
		}
	}
}

func TestSimulatePauseMonotonic(t *testing.T) {
	prev := 101.0
	for days := 0; days <= 300; days += 10 {
		p := saturation.SimulatePause("efficacy", 90, days)
		if p.ProjectedMSI > prev {
			t.Fatalf("projection must be non-increasing in pause days (day %d: %.1f > %.1f)",
				days, p.ProjectedMSI, prev)
		}
		if p.ProjectedMSI < 5 {
			t.Fatalf("projection dropped below floor: %.1f", p.ProjectedMSI)
		}
		prev = p.ProjectedMSI
	}
}

func TestSimulatePauseCurve(t *testing.T) {
	p := saturation.SimulatePause("efficacy", 80, 100)
	if len(p.Curve) < 10 {
		t.Fatalf("expected ~10 curve samples, got %d", len(p.Curve))
	}
	last := p.Curve[len(p.Curve)-1]
	if last.Day != 100 || last.MSI != p.ProjectedMSI {
		t.Fatalf("curve must end at the pause horizon: %+v", last)
	}
}

func TestOptimalPauseDays(t *testing.T) {
	// 80 -> 40 at 0.4/day is exactly 100 days.
	if d := saturation.OptimalPauseDays(80, 40); d != 100 {
		t.Fatalf("expected 100 days, got %d", d)
	}
	if d := saturation.OptimalPauseDays(35, 40); d != 0 {
		t.Fatalf("already under target, expected 0, got %d", d)
	}
	// Non-integer solutions round up.
	if d := saturation.OptimalPauseDays(41, 40); d != 3 {
		t.Fatalf("expected ceil(1/0.4)=3, got %d", d)
	}
}

func TestSummarizeOverallRisk(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Hour)
	exposures := []domain.ThemeExposure{
		{Theme: "efficacy", TouchCount30d: 20, ChannelsUsed: domain.AllChannels(), LastExposureAt: &recent, AdoptionStage: domain.StageUnaware},
		{Theme: "access", TouchCount30d: 1},
	}
	s := saturation.SummarizeAt("hcp-1", exposures, now)
	if len(s.Themes) != 2 {
		t.Fatalf("expected 2 themes, got %d", len(s.Themes))
	}
	if s.OverallRisk != domain.RiskCritical {
		t.Fatalf("a critical theme must escalate overall risk, got %s", s.OverallRisk)
	}

	empty := saturation.SummarizeAt("hcp-2", nil, now)
	if empty.OverallRisk != domain.RiskLow || empty.MeanMSI != 0 {
		t.Fatalf("empty exposure list must be low risk: %+v", empty)
	}
}
