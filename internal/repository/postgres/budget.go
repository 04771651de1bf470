package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/constraints"
)

// BudgetRepo implements constraints.BudgetRepository against PostgreSQL.
// Commit is a guarded UPDATE so a racing pair of commits cannot overdraw
// the pool.
type BudgetRepo struct{ db *sql.DB }

// NewBudgetRepo creates a Postgres-backed budget repository.
func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{db: db} }

func (r *BudgetRepo) Get(ctx context.Context, campaignID string, channel domain.Channel) (*domain.BudgetAllocation, error) {
	b := &domain.BudgetAllocation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, channel, allocated, spent, committed, updated_at
		FROM budget_allocations
		WHERE campaign_id = $1 AND channel = $2
	`, campaignID, channel).Scan(
		&b.ID, &b.CampaignID, &b.Channel, &b.Allocated, &b.Spent, &b.Committed, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, constraints.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *BudgetRepo) Commit(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budget_allocations SET
			committed = committed + $3,
			updated_at = NOW()
		WHERE campaign_id = $1 AND channel = $2
		  AND allocated - spent - committed >= $3
	`, campaignID, channel, amount)
	if err != nil {
		return fmt.Errorf("commit budget: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM budget_allocations WHERE campaign_id = $1 AND channel = $2
		)
	`, campaignID, channel).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check budget row: %w", err)
	}
	if !exists {
		return constraints.ErrNotFound
	}
	return constraints.ErrInsufficientBudget
}

func (r *BudgetRepo) ReleaseCommitment(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE budget_allocations SET
			committed = GREATEST(0, committed - $3),
			updated_at = NOW()
		WHERE campaign_id = $1 AND channel = $2
	`, campaignID, channel, amount)
	if err != nil {
		return fmt.Errorf("release budget commitment: %w", err)
	}
	return nil
}

func (r *BudgetRepo) RecordSpend(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE budget_allocations SET
			committed = GREATEST(0, committed - $3),
			spent = spent + $3,
			updated_at = NOW()
		WHERE campaign_id = $1 AND channel = $2
	`, campaignID, channel, amount)
	if err != nil {
		return fmt.Errorf("record spend: %w", err)
	}
	return nil
}
