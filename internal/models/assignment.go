package models

// Assignment is the host's activity record for the "assign" module type.
// Date fields are unix timestamps; 0 means the date is disabled.
type Assignment struct {
	ID                   int64  `db:"id" json:"id"`
	CourseID             int64  `db:"course_id" json:"course_id"`
	Name                 string `db:"name" json:"name"`
	AllowSubmissionsFrom int64  `db:"allow_submissions_from" json:"allow_submissions_from"`
	DueDate              int64  `db:"due_date" json:"due_date"`
	CutoffDate           int64  `db:"cutoff_date" json:"cutoff_date"`
}

// AssignmentResetRow is the batch-reset view of an assignment, joined with
// its course name for operator output.
type AssignmentResetRow struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	CourseName string `db:"course_name" json:"course_name"`
	DueDate    int64  `db:"due_date" json:"due_date"`
	CutoffDate int64  `db:"cutoff_date" json:"cutoff_date"`
}

// GradeItem is the slice of the host's grade-item event payload the restore
// flow cares about.
type GradeItem struct {
	ID           int64  `json:"id"`
	CourseID     int64  `json:"course_id"`
	ItemType     string `json:"item_type"`
	ItemModule   string `json:"item_module"`
	ItemInstance int64  `json:"item_instance"`
}
