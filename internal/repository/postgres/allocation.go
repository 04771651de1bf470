package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/planner"
)

// AllocationRepo implements planner.AllocationRepository against PostgreSQL.
// The actual outcome is stored as a JSONB column.
type AllocationRepo struct{ db *sql.DB }

// NewAllocationRepo creates a Postgres-backed allocation repository.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

func (r *AllocationRepo) CreateBatch(ctx context.Context, allocs []domain.Allocation) error {
	if len(allocs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocation batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO plan_allocations
			(id, plan_id, result_id, hcp_id, channel, action_type, planned_date,
			 execution_window, estimated_cost, predicted_lift, confidence, priority,
			 rep_id, campaign_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`)
	if err != nil {
		return fmt.Errorf("prepare allocation insert: %w", err)
	}
	defer stmt.Close()

	for i := range allocs {
		a := &allocs[i]
		_, err := stmt.ExecContext(ctx,
			a.ID, a.PlanID, a.ResultID, a.HCPID, a.Channel, a.ActionType, a.PlannedDate,
			a.Window, a.EstimatedCost, a.PredictedLift, a.Confidence, a.Priority,
			a.RepID, a.CampaignID, a.Status, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert allocation %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

func (r *AllocationRepo) ListByPlan(ctx context.Context, planID string) ([]domain.Allocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, plan_id, result_id, hcp_id, channel, action_type, planned_date,
		       execution_window, estimated_cost, predicted_lift, confidence, priority,
		       COALESCE(rep_id,''), COALESCE(campaign_id,''), status, actual_outcome,
		       created_at, updated_at
		FROM plan_allocations
		WHERE plan_id = $1
		ORDER BY planned_date, priority DESC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var out []domain.Allocation
	for rows.Next() {
		var a domain.Allocation
		var outcome []byte
		if err := rows.Scan(
			&a.ID, &a.PlanID, &a.ResultID, &a.HCPID, &a.Channel, &a.ActionType, &a.PlannedDate,
			&a.Window, &a.EstimatedCost, &a.PredictedLift, &a.Confidence, &a.Priority,
			&a.RepID, &a.CampaignID, &a.Status, &outcome,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		if len(outcome) > 0 {
			var o domain.AllocationOutcome
			if err := json.Unmarshal(outcome, &o); err != nil {
				return nil, fmt.Errorf("decode outcome for %s: %w", a.ID, err)
			}
			a.ActualOutcome = &o
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AllocationRepo) Update(ctx context.Context, a *domain.Allocation) error {
	var outcome interface{}
	if a.ActualOutcome != nil {
		data, err := json.Marshal(a.ActualOutcome)
		if err != nil {
			return fmt.Errorf("encode outcome: %w", err)
		}
		outcome = data
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE plan_allocations SET
			status = $2, actual_outcome = $3, updated_at = $4
		WHERE id = $1
	`, a.ID, a.Status, outcome, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update allocation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return planner.ErrNotFound
	}
	return nil
}
