package models

import "time"

// Restriction is a stored due-date override for one activity instance.
// There is at most one row per activity id. NewDate of 0 means unset.
type Restriction struct {
	ID         int64     `db:"id" json:"id"`
	ActivityID int64     `db:"activity_id" json:"activity_id"`
	ModName    string    `db:"mod_name" json:"mod_name"`
	NewDate    int64     `db:"new_date" json:"new_date"`
	Reason     string    `db:"reason" json:"reason"`
	ModifiedBy int64     `db:"modified_by" json:"modified_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RestrictionReportRow is one row of the override report, joined with the
// owning activity and course.
type RestrictionReportRow struct {
	ID           int64     `db:"id" json:"id"`
	ActivityID   int64     `db:"activity_id" json:"activity_id"`
	ModName      string    `db:"mod_name" json:"mod_name"`
	ActivityName string    `db:"activity_name" json:"activity_name"`
	CourseName   string    `db:"course_name" json:"course_name"`
	NewDate      int64     `db:"new_date" json:"new_date"`
	Reason       string    `db:"reason" json:"reason"`
	ModifiedBy   int64     `db:"modified_by" json:"modified_by"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RestrictionFilter captures report listing criteria.
type RestrictionFilter struct {
	ModName  string
	CourseID int64
	Page     int
	PageSize int
}
