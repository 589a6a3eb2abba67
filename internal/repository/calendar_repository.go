package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/submission-restrict-api/internal/models"
)

// CalendarRepository maintains the host-facing calendar events mirroring
// activity deadlines.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs the repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Upsert writes one calendar event keyed by (mod_name, activity, type).
// Rewriting the same event is a no-op beyond the timestamp, which keeps the
// deferred refresh job idempotent.
func (r *CalendarRepository) Upsert(ctx context.Context, event *models.CalendarEvent) error {
	const query = `INSERT INTO calendar_events (mod_name, activity_id, event_type, name, time_start, updated_at)
VALUES (:mod_name, :activity_id, :event_type, :name, :time_start, :updated_at)
ON CONFLICT (mod_name, activity_id, event_type)
DO UPDATE SET name = EXCLUDED.name, time_start = EXCLUDED.time_start, updated_at = EXCLUDED.updated_at`
	event.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("upsert calendar event: %w", err)
	}
	return nil
}

// DeleteByActivity removes every event of an activity, used when a date is
// disabled.
func (r *CalendarRepository) DeleteByActivity(ctx context.Context, modName string, activityID int64, eventType string) error {
	const query = `DELETE FROM calendar_events WHERE mod_name = $1 AND activity_id = $2 AND event_type = $3`
	if _, err := r.db.ExecContext(ctx, query, modName, activityID, eventType); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
