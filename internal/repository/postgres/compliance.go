package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/hcp-engage/internal/domain"
)

// ComplianceRepo implements constraints.ComplianceRepository against
// PostgreSQL. Scope lists are stored as text arrays.
type ComplianceRepo struct{ db *sql.DB }

// NewComplianceRepo creates a Postgres-backed compliance-window repository.
func NewComplianceRepo(db *sql.DB) *ComplianceRepo { return &ComplianceRepo{db: db} }

func (r *ComplianceRepo) ActiveWindows(ctx context.Context, t time.Time) ([]domain.ComplianceWindow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, window_type, channel, start_date, end_date,
		       COALESCE(hcp_ids, '{}'), COALESCE(specialties, '{}'),
		       COALESCE(territories, '{}'), is_active
		FROM compliance_windows
		WHERE is_active = TRUE AND start_date <= $1 AND end_date >= $1
		ORDER BY start_date
	`, t)
	if err != nil {
		return nil, fmt.Errorf("list compliance windows: %w", err)
	}
	defer rows.Close()

	var out []domain.ComplianceWindow
	for rows.Next() {
		var (
			w       domain.ComplianceWindow
			channel sql.NullString
		)
		if err := rows.Scan(
			&w.ID, &w.WindowType, &channel, &w.StartDate, &w.EndDate,
			pq.Array(&w.HCPIDs), pq.Array(&w.Specialties),
			pq.Array(&w.Territories), &w.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan compliance window: %w", err)
		}
		if channel.Valid {
			c := domain.Channel(channel.String)
			w.Channel = &c
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Create inserts a window. Used by the admin API.
func (r *ComplianceRepo) Create(ctx context.Context, w *domain.ComplianceWindow) error {
	var channel interface{}
	if w.Channel != nil {
		channel = string(*w.Channel)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO compliance_windows
			(id, window_type, channel, start_date, end_date,
			 hcp_ids, specialties, territories, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, w.ID, w.WindowType, channel, w.StartDate, w.EndDate,
		pq.Array(w.HCPIDs), pq.Array(w.Specialties), pq.Array(w.Territories), w.IsActive)
	if err != nil {
		return fmt.Errorf("create compliance window: %w", err)
	}
	return nil
}
