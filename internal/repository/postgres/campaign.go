// Package postgres persists campaign state and automation records.
// Campaign rows are a local cache of what the platforms last told us,
// refreshed after every fetch or mutation; the platforms stay the
// source of truth.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/adpilot/internal/domain"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// CampaignRepo caches campaign state in PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign cache.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// Upsert writes the campaign's latest known state.
func (r *CampaignRepo) Upsert(ctx context.Context, c *domain.Campaign) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, platform, name, status, budget, start_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id, platform) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			budget = EXCLUDED.budget,
			start_date = EXCLUDED.start_date,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.Platform, c.Name, c.Status, c.Budget, c.StartDate, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert campaign: %w", err)
	}
	return nil
}

// Get returns one campaign by its platform-scoped id.
func (r *CampaignRepo) Get(ctx context.Context, platform domain.Platform, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, platform, name, status, budget, start_date, updated_at
		FROM campaigns
		WHERE id = $1 AND platform = $2
	`, id, platform).Scan(&c.ID, &c.Platform, &c.Name, &c.Status, &c.Budget, &c.StartDate, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// List returns cached campaigns, optionally filtered by platform.
// PlatformAll returns everything.
func (r *CampaignRepo) List(ctx context.Context, platform domain.Platform) ([]domain.Campaign, error) {
	q := `
		SELECT id, platform, name, status, budget, start_date, updated_at
		FROM campaigns`
	args := []interface{}{}
	if platform != "" && platform != domain.PlatformAll {
		q += " WHERE platform = $1"
		args = append(args, platform)
	}
	q += " ORDER BY updated_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.ID, &c.Platform, &c.Name, &c.Status, &c.Budget, &c.StartDate, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveSnapshots stores normalized performance rows for later reporting
// and optimization windows.
func (r *CampaignRepo) SaveSnapshots(ctx context.Context, snaps []domain.MetricSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metric_snapshots
			(campaign_id, platform, window_start, window_end,
			 impressions, clicks, conversions, cost, revenue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (campaign_id, platform, window_start, window_end) DO UPDATE SET
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			conversions = EXCLUDED.conversions,
			cost = EXCLUDED.cost,
			revenue = EXCLUDED.revenue
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range snaps {
		if _, err := stmt.ExecContext(ctx, s.CampaignID, s.Platform, s.Window.Start, s.Window.End,
			s.Impressions, s.Clicks, s.Conversions, s.Cost, s.Revenue); err != nil {
			return fmt.Errorf("insert snapshot %s/%s: %w", s.Platform, s.CampaignID, err)
		}
	}
	return tx.Commit()
}
