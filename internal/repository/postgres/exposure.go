package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/hcp-engage/internal/domain"
)

// ExposureRepo implements saturation.ExposureRepository against PostgreSQL.
type ExposureRepo struct{ db *sql.DB }

// NewExposureRepo creates a Postgres-backed theme-exposure repository.
func NewExposureRepo(db *sql.DB) *ExposureRepo { return &ExposureRepo{db: db} }

func (r *ExposureRepo) ListByHCP(ctx context.Context, hcpID string) ([]domain.ThemeExposure, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hcp_id, theme, touch_count_30d, COALESCE(channels_used, '{}'),
		       last_exposure_at, adoption_stage
		FROM theme_exposures
		WHERE hcp_id = $1
		ORDER BY theme
	`, hcpID)
	if err != nil {
		return nil, fmt.Errorf("list theme exposures: %w", err)
	}
	defer rows.Close()

	var out []domain.ThemeExposure
	for rows.Next() {
		var (
			e        domain.ThemeExposure
			channels []string
		)
		if err := rows.Scan(
			&e.HCPID, &e.Theme, &e.TouchCount30d, pq.Array(&channels),
			&e.LastExposureAt, &e.AdoptionStage,
		); err != nil {
			return nil, fmt.Errorf("scan theme exposure: %w", err)
		}
		for _, c := range channels {
			e.ChannelsUsed = append(e.ChannelsUsed, domain.Channel(c))
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordExposure bumps the 30-day touch counter for one theme and merges the
// channel into the diversity set.
func (r *ExposureRepo) RecordExposure(ctx context.Context, hcpID, theme string, channel domain.Channel) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO theme_exposures
			(hcp_id, theme, touch_count_30d, channels_used, last_exposure_at, adoption_stage)
		VALUES ($1, $2, 1, ARRAY[$3], NOW(), 'unaware')
		ON CONFLICT (hcp_id, theme) DO UPDATE SET
			touch_count_30d = theme_exposures.touch_count_30d + 1,
			channels_used = (
				SELECT ARRAY(SELECT DISTINCT unnest(theme_exposures.channels_used || ARRAY[$3]))
			),
			last_exposure_at = NOW()
	`, hcpID, theme, string(channel))
	if err != nil {
		return fmt.Errorf("record exposure: %w", err)
	}
	return nil
}
