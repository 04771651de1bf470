package nba

import (
	"context"

	"github.com/ignite/hcp-engage/internal/domain"
)

// ProfileRepository defines the read-only data access the engine needs.
// Implementations must be safe for concurrent use.
type ProfileRepository interface {
	// Get returns a single HCP profile with all engagement snapshots
	// populated. Returns ErrNotFound if the HCP doesn't exist.
	Get(ctx context.Context, hcpID string) (*domain.HCPProfile, error)
}

// SaturationProvider supplies the optional message-saturation overlay input.
// A nil provider, or a nil summary for an HCP, disables the overlay.
type SaturationProvider interface {
	// Summary returns the saturation summary for an HCP, or nil when no
	// exposure history exists.
	Summary(ctx context.Context, hcpID string) (*domain.SaturationSummary, error)
}
