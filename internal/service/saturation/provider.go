package saturation

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
)

// ExposureRepository reads and records raw theme exposure history.
type ExposureRepository interface {
	ListByHCP(ctx context.Context, hcpID string) ([]domain.ThemeExposure, error)
	RecordExposure(ctx context.Context, hcpID, theme string, channel domain.Channel) error
}

// Provider computes saturation summaries on demand from exposure history.
// It satisfies the NBA engine's saturation dependency.
type Provider struct {
	exposures ExposureRepository
	target    float64
	now       func() time.Time
}

// NewProvider creates a saturation provider over the exposure repository.
func NewProvider(exposures ExposureRepository) *Provider {
	return &Provider{exposures: exposures, target: DefaultTargetMSI, now: time.Now}
}

// SetTargetMSI overrides the MSI level pause projections aim for.
// Non-positive values are ignored.
func (p *Provider) SetTargetMSI(target float64) {
	if target > 0 {
		p.target = target
	}
}

// Summary returns the HCP's saturation summary, or nil when the HCP has no
// exposure history.
func (p *Provider) Summary(ctx context.Context, hcpID string) (*domain.SaturationSummary, error) {
	exposures, err := p.exposures.ListByHCP(ctx, hcpID)
	if err != nil {
		return nil, fmt.Errorf("list exposures: %w", err)
	}
	if len(exposures) == 0 {
		return nil, nil
	}
	summary := SummarizeAt(hcpID, exposures, p.now())
	return &summary, nil
}

// Record stores one delivered touch against a theme. Downstream summaries
// pick it up on the next read.
func (p *Provider) Record(ctx context.Context, hcpID, theme string, channel domain.Channel) error {
	if err := p.exposures.RecordExposure(ctx, hcpID, theme, channel); err != nil {
		return fmt.Errorf("record exposure: %w", err)
	}
	return nil
}

// ProjectPause simulates pausing one theme for the HCP.
func (p *Provider) ProjectPause(ctx context.Context, hcpID, theme string, pauseDays int) (*domain.PauseProjection, error) {
	exposures, err := p.exposures.ListByHCP(ctx, hcpID)
	if err != nil {
		return nil, fmt.Errorf("list exposures: %w", err)
	}
	for _, e := range exposures {
		if e.Theme == theme {
			current := ComputeMSIAt(e, p.now())
			proj := SimulatePause(theme, current, pauseDays)
			proj.TargetMSI = p.target
			proj.OptimalPauseDays = OptimalPauseDays(current, p.target)
			return &proj, nil
		}
	}
	return nil, fmt.Errorf("no exposure history for theme %q", theme)
}
