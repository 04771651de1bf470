package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/planner"
)

// PlanRepo implements planner.PlanRepository against PostgreSQL.
type PlanRepo struct{ db *sql.DB }

// NewPlanRepo creates a Postgres-backed execution-plan repository.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

const planColumns = `
	id, source_result_id, status, total_actions, completed_actions,
	failed_actions, budget_allocated, budget_spent, rebalance_count,
	scheduled_start_at, actual_start_at, actual_end_at, created_at, updated_at`

func (r *PlanRepo) Create(ctx context.Context, p *domain.ExecutionPlan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO execution_plans
			(id, source_result_id, status, total_actions, completed_actions,
			 failed_actions, budget_allocated, budget_spent, rebalance_count,
			 scheduled_start_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.SourceResultID, p.Status, p.TotalActions, p.CompletedActions,
		p.FailedActions, p.BudgetAllocated, p.BudgetSpent, p.RebalanceCount,
		p.ScheduledStartAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) Get(ctx context.Context, id string) (*domain.ExecutionPlan, error) {
	p := &domain.ExecutionPlan{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM execution_plans WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.SourceResultID, &p.Status, &p.TotalActions, &p.CompletedActions,
		&p.FailedActions, &p.BudgetAllocated, &p.BudgetSpent, &p.RebalanceCount,
		&p.ScheduledStartAt, &p.ActualStartAt, &p.ActualEndAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, planner.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepo) Update(ctx context.Context, p *domain.ExecutionPlan) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE execution_plans SET
			status = $2, total_actions = $3, completed_actions = $4,
			failed_actions = $5, budget_allocated = $6, budget_spent = $7,
			rebalance_count = $8, scheduled_start_at = $9,
			actual_start_at = $10, actual_end_at = $11, updated_at = $12
		WHERE id = $1
	`, p.ID, p.Status, p.TotalActions, p.CompletedActions,
		p.FailedActions, p.BudgetAllocated, p.BudgetSpent,
		p.RebalanceCount, p.ScheduledStartAt,
		p.ActualStartAt, p.ActualEndAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return planner.ErrNotFound
	}
	return nil
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM execution_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return planner.ErrNotFound
	}
	return nil
}

func (r *PlanRepo) ListDue(ctx context.Context, t time.Time) ([]domain.ExecutionPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+`
		 FROM execution_plans
		 WHERE status = $1 AND scheduled_start_at IS NOT NULL AND scheduled_start_at <= $2
		 ORDER BY scheduled_start_at`,
		domain.PlanScheduled, t)
	if err != nil {
		return nil, fmt.Errorf("list due plans: %w", err)
	}
	defer rows.Close()

	var out []domain.ExecutionPlan
	for rows.Next() {
		var p domain.ExecutionPlan
		if err := rows.Scan(
			&p.ID, &p.SourceResultID, &p.Status, &p.TotalActions, &p.CompletedActions,
			&p.FailedActions, &p.BudgetAllocated, &p.BudgetSpent, &p.RebalanceCount,
			&p.ScheduledStartAt, &p.ActualStartAt, &p.ActualEndAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
