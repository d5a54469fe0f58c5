package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/adpilot/internal/domain"
)

// AutomationRepo implements automation.RecordStore against PostgreSQL.
type AutomationRepo struct{ db *sql.DB }

// NewAutomationRepo creates a Postgres-backed automation record store.
func NewAutomationRepo(db *sql.DB) *AutomationRepo { return &AutomationRepo{db: db} }

// Save inserts a freshly opened record.
func (r *AutomationRepo) Save(ctx context.Context, rec *domain.AutomationRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO automation_records
			(id, task_type, task_name, campaign_id, manual_duration_minutes,
			 automated_duration_seconds, hourly_rate, time_saved_minutes,
			 cost_saved, status, error_message, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, rec.ID, rec.TaskType, rec.TaskName, nullString(rec.CampaignID),
		rec.ManualDurationMinutes, rec.AutomatedDurationSecs, rec.HourlyRate,
		rec.TimeSavedMinutes, rec.CostSaved, rec.Status, nullString(rec.ErrorMessage),
		rec.StartedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("save automation record: %w", err)
	}
	return nil
}

// Update finalizes a record on close. Closed records never change again,
// so the guard on status keeps replays from rewriting history.
func (r *AutomationRepo) Update(ctx context.Context, rec *domain.AutomationRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE automation_records SET
			automated_duration_seconds = $1,
			time_saved_minutes = $2,
			cost_saved = $3,
			status = $4,
			error_message = $5,
			completed_at = $6
		WHERE id = $7 AND status = 'running'
	`, rec.AutomatedDurationSecs, rec.TimeSavedMinutes, rec.CostSaved,
		rec.Status, nullString(rec.ErrorMessage), rec.CompletedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("update automation record: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records started within the period, oldest first.
func (r *AutomationRepo) List(ctx context.Context, period domain.DateRange) ([]domain.AutomationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_type, task_name, COALESCE(campaign_id, ''),
		       manual_duration_minutes, automated_duration_seconds, hourly_rate,
		       time_saved_minutes, cost_saved, status, COALESCE(error_message, ''),
		       started_at, completed_at
		FROM automation_records
		WHERE started_at >= $1 AND started_at < $2
		ORDER BY started_at ASC
	`, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("list automation records: %w", err)
	}
	defer rows.Close()

	var out []domain.AutomationRecord
	for rows.Next() {
		var rec domain.AutomationRecord
		if err := rows.Scan(
			&rec.ID, &rec.TaskType, &rec.TaskName, &rec.CampaignID,
			&rec.ManualDurationMinutes, &rec.AutomatedDurationSecs, &rec.HourlyRate,
			&rec.TimeSavedMinutes, &rec.CostSaved, &rec.Status, &rec.ErrorMessage,
			&rec.StartedAt, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan automation record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
