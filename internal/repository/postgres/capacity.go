package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/constraints"
)

// CapacityRepo implements constraints.CapacityRepository against PostgreSQL.
// Consume is a single guarded UPDATE, so two bookings racing for the last
// slot cannot both win.
type CapacityRepo struct{ db *sql.DB }

// NewCapacityRepo creates a Postgres-backed capacity repository.
func NewCapacityRepo(db *sql.DB) *CapacityRepo { return &CapacityRepo{db: db} }

func (r *CapacityRepo) Get(ctx context.Context, channel domain.Channel, repID string) (*domain.ChannelCapacity, error) {
	c := &domain.ChannelCapacity{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, channel, COALESCE(rep_id,''), daily_used, daily_limit,
		       weekly_used, weekly_limit, monthly_used, monthly_limit, updated_at
		FROM channel_capacity
		WHERE channel = $1 AND COALESCE(rep_id,'') = $2
	`, channel, repID).Scan(
		&c.ID, &c.Channel, &c.RepID, &c.DailyUsed, &c.DailyLimit,
		&c.WeeklyUsed, &c.WeeklyLimit, &c.MonthlyUsed, &c.MonthlyLimit, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, constraints.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get capacity: %w", err)
	}
	return c, nil
}

func (r *CapacityRepo) Consume(ctx context.Context, channel domain.Channel, repID string, n int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE channel_capacity SET
			daily_used = daily_used + $3,
			weekly_used = weekly_used + $3,
			monthly_used = monthly_used + $3,
			updated_at = NOW()
		WHERE channel = $1 AND COALESCE(rep_id,'') = $2
		  AND (daily_limit <= 0 OR daily_used + $3 <= daily_limit)
		  AND (weekly_limit <= 0 OR weekly_used + $3 <= weekly_limit)
		  AND (monthly_limit <= 0 OR monthly_used + $3 <= monthly_limit)
	`, channel, repID, n)
	if err != nil {
		return fmt.Errorf("consume capacity: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return nil
	}

	// Distinguish a missing row (unconstrained channel) from exhaustion.
	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM channel_capacity WHERE channel = $1 AND COALESCE(rep_id,'') = $2
		)
	`, channel, repID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check capacity row: %w", err)
	}
	if !exists {
		return nil
	}
	return constraints.ErrCapacityExhausted
}

func (r *CapacityRepo) Release(ctx context.Context, channel domain.Channel, repID string, n int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE channel_capacity SET
			daily_used = GREATEST(0, daily_used - $3),
			weekly_used = GREATEST(0, weekly_used - $3),
			monthly_used = GREATEST(0, monthly_used - $3),
			updated_at = NOW()
		WHERE channel = $1 AND COALESCE(rep_id,'') = $2
	`, channel, repID, n)
	if err != nil {
		return fmt.Errorf("release capacity: %w", err)
	}
	return nil
}

// ResetWindow zeroes one rolling counter across all rows. Invoked by the
// scheduler at day/week/month boundaries.
func (r *CapacityRepo) ResetWindow(ctx context.Context, window string) error {
	var col string
	switch window {
	case "daily":
		col = "daily_used"
	case "weekly":
		col = "weekly_used"
	case "monthly":
		col = "monthly_used"
	default:
		return fmt.Errorf("unknown capacity window %q", window)
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE channel_capacity SET %s = 0, updated_at = NOW()`, col))
	if err != nil {
		return fmt.Errorf("reset %s capacity: %w", window, err)
	}
	return nil
}
