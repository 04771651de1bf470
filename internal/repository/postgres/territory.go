package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
)

// TerritoryRepo implements constraints.TerritoryRepository against PostgreSQL.
type TerritoryRepo struct{ db *sql.DB }

// NewTerritoryRepo creates a Postgres-backed territory repository.
func NewTerritoryRepo(db *sql.DB) *TerritoryRepo { return &TerritoryRepo{db: db} }

func (r *TerritoryRepo) HasActiveAssignment(ctx context.Context, repID, hcpID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM territory_assignments
			WHERE rep_id = $1 AND hcp_id = $2 AND is_active = TRUE
		)
	`, repID, hcpID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check territory assignment: %w", err)
	}
	return exists, nil
}

// Assign creates or reactivates an assignment.
func (r *TerritoryRepo) Assign(ctx context.Context, a *domain.TerritoryAssignment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO territory_assignments (id, rep_id, hcp_id, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (rep_id, hcp_id) DO UPDATE SET is_active = TRUE
	`, a.ID, a.RepID, a.HCPID)
	if err != nil {
		return fmt.Errorf("assign territory: %w", err)
	}
	return nil
}
