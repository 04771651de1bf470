package nba

import (
	"context"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/pkg/logger"
	"github.com/ignite/hcp-engage/internal/service/health"
)

// Service wires the decision engine to the profile repository and the
// optional saturation provider. All public methods are safe for concurrent
// use if the underlying repository is concurrency-safe.
type Service struct {
	profiles   ProfileRepository
	sat        SaturationProvider // nil disables the overlay
	thresholds health.Thresholds
	cfg        Config
}

// NewService creates an NBA service. sat may be nil when no saturation data
// source is configured.
func NewService(profiles ProfileRepository, sat SaturationProvider, thresholds health.Thresholds, cfg Config) *Service {
	return &Service{profiles: profiles, sat: sat, thresholds: thresholds, cfg: cfg}
}

// Generate produces the recommendation for one HCP, including the saturation
// overlay when exposure data exists.
func (s *Service) Generate(ctx context.Context, hcpID string) (*domain.NextBestAction, error) {
	p, err := s.profiles.Get(ctx, hcpID)
	if err != nil {
		return nil, err
	}
	if len(p.Engagements) == 0 {
		return nil, ErrNoChannels
	}

	healths := health.ClassifyProfile(p, s.thresholds)
	rec := Decide(p, healths, s.cfg)

	if s.sat != nil {
		summary, err := s.sat.Summary(ctx, hcpID)
		if err != nil {
			// Saturation is an overlay, not a dependency; log and move on.
			logger.Warn("saturation summary unavailable", "hcp_id", hcpID, "error", err.Error())
		} else {
			rec = ApplyOverlay(rec, summary)
		}
	}

	return &rec, nil
}

// GenerateForProfile runs the engine against an already-loaded profile with
// precomputed health, skipping repository and overlay lookups.
func (s *Service) GenerateForProfile(p *domain.HCPProfile, healths []domain.ChannelHealth) domain.NextBestAction {
	if healths == nil {
		healths = health.ClassifyProfile(p, s.thresholds)
	}
	return Decide(p, healths, s.cfg)
}

// BatchError records one per-HCP failure during batch generation.
type BatchError struct {
	HCPID string `json:"hcp_id"`
	Error string `json:"error"`
}

// GenerateBatch produces recommendations for many HCPs. Per-HCP failures are
// collected and do not abort the batch. Recommendations below the configured
// minimum confidence are dropped.
func (s *Service) GenerateBatch(ctx context.Context, hcpIDs []string) ([]domain.NextBestAction, []BatchError) {
	var out []domain.NextBestAction
	var errs []BatchError

	for _, id := range hcpIDs {
		if ctx.Err() != nil {
			errs = append(errs, BatchError{HCPID: id, Error: ctx.Err().Error()})
			continue
		}
		rec, err := s.Generate(ctx, id)
		if err != nil {
			errs = append(errs, BatchError{HCPID: id, Error: err.Error()})
			continue
		}
		if rec.Confidence < s.cfg.MinConfidenceThreshold {
			logger.Debug("recommendation below confidence floor",
				"hcp_id", id, "confidence", rec.Confidence)
			continue
		}
		out = append(out, *rec)
	}
	return out, errs
}
