package models

import "time"

// CalendarEvent is the host-facing calendar representation of an activity
// deadline. One event per (mod_name, activity id, event type).
type CalendarEvent struct {
	ID         int64     `db:"id" json:"id"`
	ModName    string    `db:"mod_name" json:"mod_name"`
	ActivityID int64     `db:"activity_id" json:"activity_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	Name       string    `db:"name" json:"name"`
	TimeStart  int64     `db:"time_start" json:"time_start"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Calendar event types for assignment deadlines.
const (
	CalendarEventDue    = "due"
	CalendarEventCutoff = "cutoff"
)
