package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/constraints"
)

// ContactRepo implements constraints.ContactRepository against PostgreSQL.
// The governance row, per-channel cooldown rules and per-channel last-contact
// timestamps live in three tables joined at read time.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact-limits repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Get(ctx context.Context, hcpID string) (*domain.ContactLimits, error) {
	l := &domain.ContactLimits{}
	var lastChannel sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT hcp_id, touches_this_week, touches_this_month, max_per_week,
		       max_per_month, last_contact_at, last_channel, do_not_contact, updated_at
		FROM hcp_contact_limits
		WHERE hcp_id = $1
	`, hcpID).Scan(
		&l.HCPID, &l.TouchesThisWeek, &l.TouchesThisMonth, &l.MaxPerWeek,
		&l.MaxPerMonth, &l.LastContactAt, &lastChannel, &l.DoNotContact, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, constraints.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact limits: %w", err)
	}
	if lastChannel.Valid {
		l.LastChannel = domain.Channel(lastChannel.String)
	}

	if err := r.loadCooldowns(ctx, l); err != nil {
		return nil, err
	}
	if err := r.loadLastByChannel(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ContactRepo) loadCooldowns(ctx context.Context, l *domain.ContactLimits) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel, cooldown_days
		FROM hcp_channel_cooldowns
		WHERE hcp_id = $1
	`, l.HCPID)
	if err != nil {
		return fmt.Errorf("list cooldowns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cd domain.ChannelCooldown
		if err := rows.Scan(&cd.Channel, &cd.CooldownDays); err != nil {
			return fmt.Errorf("scan cooldown: %w", err)
		}
		l.Cooldowns = append(l.Cooldowns, cd)
	}
	return rows.Err()
}

func (r *ContactRepo) loadLastByChannel(ctx context.Context, l *domain.ContactLimits) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel, contacted_at
		FROM hcp_channel_contacts
		WHERE hcp_id = $1
	`, l.HCPID)
	if err != nil {
		return fmt.Errorf("list channel contacts: %w", err)
	}
	defer rows.Close()

	l.LastByChannel = map[domain.Channel]time.Time{}
	for rows.Next() {
		var (
			ch domain.Channel
			at time.Time
		)
		if err := rows.Scan(&ch, &at); err != nil {
			return fmt.Errorf("scan channel contact: %w", err)
		}
		l.LastByChannel[ch] = at
	}
	return rows.Err()
}

func (r *ContactRepo) RecordContact(ctx context.Context, hcpID string, channel domain.Channel, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record contact: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE hcp_contact_limits SET
			touches_this_week = touches_this_week + 1,
			touches_this_month = touches_this_month + 1,
			last_contact_at = $2,
			last_channel = $3,
			updated_at = NOW()
		WHERE hcp_id = $1
	`, hcpID, at, channel)
	if err != nil {
		return fmt.Errorf("bump touch counters: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO hcp_channel_contacts (hcp_id, channel, contacted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (hcp_id, channel) DO UPDATE SET
			contacted_at = GREATEST(hcp_channel_contacts.contacted_at, EXCLUDED.contacted_at)
	`, hcpID, channel, at)
	if err != nil {
		return fmt.Errorf("record channel contact: %w", err)
	}
	return tx.Commit()
}
