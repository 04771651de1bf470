package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/pkg/logger"
)

// ProfileWriter accepts refreshed profiles. Implemented by the Postgres
// HCP repository.
type ProfileWriter interface {
	Upsert(ctx context.Context, p *domain.HCPProfile) error
}

// Importer pulls per-HCP per-channel engagement aggregates out of the
// warehouse and refreshes profile snapshots.
type Importer struct {
	db       *sql.DB
	profiles ProfileWriter
}

// NewImporter creates an importer over the warehouse client.
func NewImporter(client *Client, profiles ProfileWriter) *Importer {
	return &Importer{db: client.db, profiles: profiles}
}

// ImportStats summarizes one import run.
type ImportStats struct {
	Profiles int
	Rows     int
	Errors   int
}

const engagementQuery = `
	SELECT HCP_EXTERNAL_ID, HCP_NAME, SPECIALTY, TIER, PREFERRED_CHANNEL,
	       TERRITORY_ID, CHANNEL, AFFINITY_SCORE, TOTAL_TOUCHES,
	       RESPONSE_RATE, DAYS_SINCE_CONTACT
	FROM HCP_CHANNEL_ENGAGEMENT_AGG
	ORDER BY HCP_EXTERNAL_ID, CHANNEL`

// ImportEngagements streams the aggregate table and upserts one profile per
// HCP. A failing upsert is counted and skipped; the run continues.
func (i *Importer) ImportEngagements(ctx context.Context) (*ImportStats, error) {
	rows, err := i.db.QueryContext(ctx, engagementQuery)
	if err != nil {
		return nil, fmt.Errorf("query engagement aggregates: %w", err)
	}
	defer rows.Close()

	stats := &ImportStats{}
	var current *domain.HCPProfile

	flush := func() {
		if current == nil {
			return
		}
		if err := i.profiles.Upsert(ctx, current); err != nil {
			stats.Errors++
			logger.Warn("profile upsert failed", "external_id", current.ExternalID, "error", err.Error())
		} else {
			stats.Profiles++
		}
		current = nil
	}

	for rows.Next() {
		var (
			externalID, name, specialty, tier string
			preferred, territory, channel     string
			score, responseRate               float64
			touches                           int
			days                              sql.NullInt64
		)
		if err := rows.Scan(&externalID, &name, &specialty, &tier, &preferred,
			&territory, &channel, &score, &touches, &responseRate, &days); err != nil {
			return stats, fmt.Errorf("scan engagement row: %w", err)
		}
		stats.Rows++

		if current == nil || current.ExternalID != externalID {
			flush()
			current = &domain.HCPProfile{
				ExternalID:       externalID,
				Name:             name,
				Specialty:        specialty,
				Tier:             domain.HCPTier(tier),
				PreferredChannel: domain.Channel(preferred),
				TerritoryID:      territory,
			}
		}

		e := domain.ChannelEngagement{
			Channel:       domain.Channel(channel),
			AffinityScore: score,
			TotalTouches:  touches,
			ResponseRate:  responseRate,
		}
		if days.Valid {
			d := int(days.Int64)
			e.DaysSinceContact = &d
		}
		current.Engagements = append(current.Engagements, e)
	}
	flush()

	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate engagement rows: %w", err)
	}
	logger.Info("engagement import finished",
		"profiles", stats.Profiles, "rows", stats.Rows, "errors", stats.Errors)
	return stats, nil
}
