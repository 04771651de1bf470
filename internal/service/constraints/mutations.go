package constraints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/pkg/logger"
)

// ConsumeCapacity books one unit of capacity for the channel/rep key. With a
// guard installed, the guard is consulted first and refunded if the SQL
// consume then fails; the SQL counters remain the source of truth.
func (m *Manager) ConsumeCapacity(ctx context.Context, channel domain.Channel, repID string) error {
	if m.guard == nil {
		return m.capacity.Consume(ctx, channel, repID, 1)
	}

	cap, err := m.capacity.Get(ctx, channel, repID)
	if errors.Is(err, ErrNotFound) {
		// Unconstrained channel; nothing to count.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load capacity: %w", err)
	}

	allowed, window, err := m.guard.CheckAndConsume(ctx, channel, repID, 1,
		cap.DailyLimit, cap.WeeklyLimit, cap.MonthlyLimit)
	if err != nil {
		// Guard outage must not block bookings; the SQL guard still holds.
		logger.Warn("capacity guard unavailable", "channel", string(channel), "error", err.Error())
		return m.capacity.Consume(ctx, channel, repID, 1)
	}
	if !allowed {
		return fmt.Errorf("%w: %s window", ErrCapacityExhausted, window)
	}

	if err := m.capacity.Consume(ctx, channel, repID, 1); err != nil {
		if rerr := m.guard.Refund(ctx, channel, repID, 1); rerr != nil {
			logger.Warn("capacity guard refund failed", "channel", string(channel), "error", rerr.Error())
		}
		return err
	}
	return nil
}

// ReleaseCapacity returns one unit of capacity. Counters floor at zero, so
// double release is harmless.
func (m *Manager) ReleaseCapacity(ctx context.Context, channel domain.Channel, repID string) error {
	if m.guard != nil {
		if err := m.guard.Refund(ctx, channel, repID, 1); err != nil {
			logger.Warn("capacity guard refund failed", "channel", string(channel), "error", err.Error())
		}
	}
	return m.capacity.Release(ctx, channel, repID, 1)
}

// CommitBudget reserves amount against the campaign/channel pool. Fails with
// ErrInsufficientBudget when the pool cannot cover it at call time. A zero
// amount, or an action with no campaign, is a no-op.
func (m *Manager) CommitBudget(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error {
	if amount <= 0 || campaignID == "" {
		return nil
	}
	return m.budgets.Commit(ctx, campaignID, channel, amount)
}

// ReleaseBudget returns a previously committed amount; the committed counter
// floors at zero.
func (m *Manager) ReleaseBudget(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error {
	if amount <= 0 || campaignID == "" {
		return nil
	}
	return m.budgets.ReleaseCommitment(ctx, campaignID, channel, amount)
}

// RecordSpend converts a committed amount into actual spend.
func (m *Manager) RecordSpend(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error {
	if amount <= 0 || campaignID == "" {
		return nil
	}
	return m.budgets.RecordSpend(ctx, campaignID, channel, amount)
}

// RecordContact bumps the HCP's touch counters after an executed action.
// An HCP without a governance row is left ungoverned; that is not an error.
func (m *Manager) RecordContact(ctx context.Context, hcpID string, channel domain.Channel, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	if err := m.contacts.RecordContact(ctx, hcpID, channel, at); err != nil {
		logger.Warn("record contact failed", "hcp_id", hcpID, "channel", string(channel), "error", err.Error())
		return err
	}
	return nil
}
