package models

import "time"

// Setting is a named string-valued configuration entry. Adapter
// configuration is stored under per-mod names such as
// "assign_restore_enabled" or "assign_timeslots".
type Setting struct {
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *int64    `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
