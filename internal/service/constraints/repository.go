package constraints

import (
	"context"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
)

// CapacityRepository manages per-channel (optionally per-rep) capacity rows.
// Consume and Release must be atomic read-check-write operations scoped to
// the (channel, repID) key.
type CapacityRepository interface {
	// Get returns the capacity row for a channel/rep key, or ErrNotFound
	// when no capacity is configured for it.
	Get(ctx context.Context, channel domain.Channel, repID string) (*domain.ChannelCapacity, error)

	// Consume atomically increments the daily/weekly/monthly counters by n,
	// failing with ErrCapacityExhausted if any window would exceed its
	// limit. Windows with a zero limit are unbounded.
	Consume(ctx context.Context, channel domain.Channel, repID string, n int) error

	// Release atomically decrements the counters by n, flooring at zero.
	// Releasing more than was consumed is not an error.
	Release(ctx context.Context, channel domain.Channel, repID string, n int) error
}

// CapacityGuard is an optional atomic pre-check in front of the SQL capacity
// counters, for deployments where concurrent bookings share a capacity key.
// A zero limit leaves that window unbounded. The SQL counters stay the
// source of truth; a guard outage falls back to the SQL guard alone.
type CapacityGuard interface {
	// CheckAndConsume atomically checks all three windows and consumes
	// count units only if all pass, naming the blocking window otherwise.
	CheckAndConsume(ctx context.Context, channel domain.Channel, repID string, count, dailyLimit, weeklyLimit, monthlyLimit int) (allowed bool, blockedWindow string, err error)

	// Refund returns count units to all three windows, flooring at zero.
	Refund(ctx context.Context, channel domain.Channel, repID string, count int) error
}

// ContactRepository manages per-HCP contact governance rows.
type ContactRepository interface {
	// Get returns the contact limits for an HCP, or ErrNotFound when the
	// HCP has no governance row (meaning: unconstrained).
	Get(ctx context.Context, hcpID string) (*domain.ContactLimits, error)

	// RecordContact atomically bumps the weekly/monthly touch counters and
	// stamps the last-contact time and channel.
	RecordContact(ctx context.Context, hcpID string, channel domain.Channel, at time.Time) error
}

// ComplianceRepository serves active blackout windows.
type ComplianceRepository interface {
	// ActiveWindows returns all active windows whose date range covers t.
	ActiveWindows(ctx context.Context, t time.Time) ([]domain.ComplianceWindow, error)
}

// BudgetRepository manages campaign/channel budget pools. Commit, Release
// and RecordSpend must be atomic against the (campaignID, channel) key.
type BudgetRepository interface {
	// Get returns the budget pool, or ErrNotFound when none is configured.
	Get(ctx context.Context, campaignID string, channel domain.Channel) (*domain.BudgetAllocation, error)

	// Commit reserves amount from the available pool, failing with
	// ErrInsufficientBudget when amount exceeds available at call time.
	Commit(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error

	// ReleaseCommitment returns a previously committed amount to the pool,
	// flooring the committed counter at zero.
	ReleaseCommitment(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error

	// RecordSpend converts a committed amount into spend, flooring the
	// committed counter at zero.
	RecordSpend(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error
}

// TerritoryRepository answers rep-to-HCP assignment questions.
type TerritoryRepository interface {
	HasActiveAssignment(ctx context.Context, repID, hcpID string) (bool, error)
}

// ProfileReader is the narrow profile lookup the compliance check needs for
// specialty and territory scoping.
type ProfileReader interface {
	Get(ctx context.Context, hcpID string) (*domain.HCPProfile, error)
}
