package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/nba"
)

// HCPRepo implements profile lookups against PostgreSQL. It serves both the
// NBA engine and the constraint manager's compliance scoping.
type HCPRepo struct{ db *sql.DB }

// NewHCPRepo creates a Postgres-backed HCP profile repository.
func NewHCPRepo(db *sql.DB) *HCPRepo { return &HCPRepo{db: db} }

func (r *HCPRepo) Get(ctx context.Context, id string) (*domain.HCPProfile, error) {
	p := &domain.HCPProfile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, external_id, COALESCE(name,''), specialty, tier,
		       preferred_channel, COALESCE(territory_id,''), created_at, updated_at
		FROM hcp_profiles
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.ExternalID, &p.Name, &p.Specialty, &p.Tier,
		&p.PreferredChannel, &p.TerritoryID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nba.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get hcp profile: %w", err)
	}

	engagements, err := r.engagements(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Engagements = engagements
	return p, nil
}

func (r *HCPRepo) engagements(ctx context.Context, hcpID string) ([]domain.ChannelEngagement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel, affinity_score, total_touches, response_rate, days_since_contact
		FROM hcp_channel_engagements
		WHERE hcp_id = $1
		ORDER BY channel
	`, hcpID)
	if err != nil {
		return nil, fmt.Errorf("list engagements: %w", err)
	}
	defer rows.Close()

	var out []domain.ChannelEngagement
	for rows.Next() {
		var e domain.ChannelEngagement
		var days sql.NullInt64
		if err := rows.Scan(&e.Channel, &e.AffinityScore, &e.TotalTouches, &e.ResponseRate, &days); err != nil {
			return nil, fmt.Errorf("scan engagement: %w", err)
		}
		if days.Valid {
			d := int(days.Int64)
			e.DaysSinceContact = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListIDs returns all profile ids, paged.
func (r *HCPRepo) ListIDs(ctx context.Context, limit, offset int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM hcp_profiles ORDER BY id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list hcp ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hcp id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Upsert writes a profile and replaces its engagement snapshots. Used by the
// warehouse importer.
func (r *HCPRepo) Upsert(ctx context.Context, p *domain.HCPProfile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO hcp_profiles
			(id, external_id, name, specialty, tier, preferred_channel, territory_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			specialty = EXCLUDED.specialty,
			tier = EXCLUDED.tier,
			preferred_channel = EXCLUDED.preferred_channel,
			territory_id = EXCLUDED.territory_id,
			updated_at = NOW()
	`, p.ID, p.ExternalID, p.Name, p.Specialty, p.Tier, p.PreferredChannel, p.TerritoryID)
	if err != nil {
		return fmt.Errorf("upsert hcp profile: %w", err)
	}

	// Resolve the canonical id in case the conflict path kept an older row.
	var id string
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM hcp_profiles WHERE external_id = $1`, p.ExternalID).Scan(&id); err != nil {
		return fmt.Errorf("resolve hcp id: %w", err)
	}
	p.ID = id

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM hcp_channel_engagements WHERE hcp_id = $1`, id); err != nil {
		return fmt.Errorf("clear engagements: %w", err)
	}
	for _, e := range p.Engagements {
		var days interface{}
		if e.DaysSinceContact != nil {
			days = *e.DaysSinceContact
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO hcp_channel_engagements
				(hcp_id, channel, affinity_score, total_touches, response_rate, days_since_contact)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, e.Channel, e.AffinityScore, e.TotalTouches, e.ResponseRate, days)
		if err != nil {
			return fmt.Errorf("insert engagement: %w", err)
		}
	}
	return tx.Commit()
}
