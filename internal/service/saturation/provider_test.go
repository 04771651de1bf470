package saturation_test

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/saturation"
)

type memExposures struct {
	byHCP map[string][]domain.ThemeExposure
}

func (m *memExposures) ListByHCP(ctx context.Context, hcpID string) ([]domain.ThemeExposure, error) {
	return m.byHCP[hcpID], nil
}

func (m *memExposures) RecordExposure(ctx context.Context, hcpID, theme string, channel domain.Channel) error {
	now := time.Now()
	for i, e := range m.byHCP[hcpID] {
		if e.Theme == theme {
			m.byHCP[hcpID][i].TouchCount30d++
			m.byHCP[hcpID][i].LastExposureAt = &now
			return nil
		}
	}
	m.byHCP[hcpID] = append(m.byHCP[hcpID], domain.ThemeExposure{
		HCPID:          hcpID,
		Theme:          theme,
		TouchCount30d:  1,
		ChannelsUsed:   []domain.Channel{channel},
		LastExposureAt: &now,
		AdoptionStage:  domain.StageUnaware,
	})
	return nil
}

func TestProviderSummaryNilWithoutHistory(t *testing.T) {
	p := saturation.NewProvider(&memExposures{byHCP: map[string][]domain.ThemeExposure{}})

	summary, err := p.Summary(context.Background(), "hcp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != nil {
		t.Fatalf("expected nil summary without history, got %+v", summary)
	}
}

func TestProviderRecordThenSummary(t *testing.T) {
	repo := &memExposures{byHCP: map[string][]domain.ThemeExposure{}}
	p := saturation.NewProvider(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := p.Record(ctx, "hcp-1", "efficacy", domain.ChannelEmail); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	summary, err := p.Summary(ctx, "hcp-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary == nil || len(summary.Themes) != 1 {
		t.Fatalf("expected 1 theme, got %+v", summary)
	}
	if summary.Themes[0].Theme != "efficacy" {
		t.Fatalf("unexpected theme %q", summary.Themes[0].Theme)
	}
	if summary.Themes[0].MSI <= 0 {
		t.Fatalf("expected positive MSI after 5 touches, got %.1f", summary.Themes[0].MSI)
	}
}

func TestProviderProjectPause(t *testing.T) {
	repo := &memExposures{byHCP: map[string][]domain.ThemeExposure{}}
	p := saturation.NewProvider(repo)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		p.Record(ctx, "hcp-1", "efficacy", domain.ChannelEmail)
	}

	proj, err := p.ProjectPause(ctx, "hcp-1", "efficacy", 14)
	if err != nil {
		t.Fatalf("project pause: %v", err)
	}
	if proj.ProjectedMSI >= proj.CurrentMSI {
		t.Fatalf("pause should lower MSI: current %.1f projected %.1f",
			proj.CurrentMSI, proj.ProjectedMSI)
	}

	if _, err := p.ProjectPause(ctx, "hcp-1", "unknown-theme", 14); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}

func TestProviderProjectPauseRecommendsOptimalDays(t *testing.T) {
	repo := &memExposures{byHCP: map[string][]domain.ThemeExposure{}}
	p := saturation.NewProvider(repo)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		p.Record(ctx, "hcp-1", "efficacy", domain.ChannelEmail)
	}

	proj, err := p.ProjectPause(ctx, "hcp-1", "efficacy", 7)
	if err != nil {
		t.Fatalf("project pause: %v", err)
	}
	if proj.TargetMSI != saturation.DefaultTargetMSI {
		t.Fatalf("expected default target %.0f, got %.1f",
			saturation.DefaultTargetMSI, proj.TargetMSI)
	}
	if proj.CurrentMSI > proj.TargetMSI && proj.OptimalPauseDays <= 0 {
		t.Fatalf("above-target theme needs a recommended pause, got %d days",
			proj.OptimalPauseDays)
	}

	// A stricter target lengthens the recommended pause.
	strict := proj.OptimalPauseDays
	p.SetTargetMSI(10)
	proj, err = p.ProjectPause(ctx, "hcp-1", "efficacy", 7)
	if err != nil {
		t.Fatalf("project pause with low target: %v", err)
	}
	if proj.TargetMSI != 10 {
		t.Fatalf("expected target 10, got %.1f", proj.TargetMSI)
	}
	if proj.OptimalPauseDays <= strict {
		t.Fatalf("lower target should need a longer pause: %d vs %d",
			proj.OptimalPauseDays, strict)
	}
}
