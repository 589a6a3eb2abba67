package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/submission-restrict-api/internal/models"
)

// RestrictionRepository persists due-date override records.
type RestrictionRepository struct {
	db *sqlx.DB
}

// NewRestrictionRepository constructs the repository.
func NewRestrictionRepository(db *sqlx.DB) *RestrictionRepository {
	return &RestrictionRepository{db: db}
}

// FindByActivity fetches the restriction for one activity instance.
// Returns sql.ErrNoRows when the activity has no override.
func (r *RestrictionRepository) FindByActivity(ctx context.Context, activityID int64) (*models.Restriction, error) {
	const query = `SELECT id, activity_id, mod_name, new_date, reason, modified_by, created_at, updated_at
FROM submission_restrictions WHERE activity_id = $1`
	var rec models.Restriction
	if err := r.db.GetContext(ctx, &rec, query, activityID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert inserts or updates the restriction for an activity, stamping the
// audit columns. At most one row per activity id is kept.
func (r *RestrictionRepository) Upsert(ctx context.Context, rec *models.Restriction) error {
	if rec.Reason == "" {
		return fmt.Errorf("restriction for activity %d requires a reason", rec.ActivityID)
	}
	const query = `INSERT INTO submission_restrictions (activity_id, mod_name, new_date, reason, modified_by, created_at, updated_at)
VALUES (:activity_id, :mod_name, :new_date, :reason, :modified_by, :created_at, :updated_at)
ON CONFLICT (activity_id)
DO UPDATE SET new_date = EXCLUDED.new_date, reason = EXCLUDED.reason,
              modified_by = EXCLUDED.modified_by, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("upsert restriction: %w", err)
	}
	return nil
}

// DeleteByActivity hard-deletes the restriction row for an activity.
func (r *RestrictionRepository) DeleteByActivity(ctx context.Context, activityID int64) error {
	const query = `DELETE FROM submission_restrictions WHERE activity_id = $1`
	if _, err := r.db.ExecContext(ctx, query, activityID); err != nil {
		return fmt.Errorf("delete restriction: %w", err)
	}
	return nil
}

// DeleteByCourse removes restriction rows for every activity in a course.
func (r *RestrictionRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	const query = `DELETE FROM submission_restrictions
WHERE activity_id IN (SELECT id FROM assignments WHERE course_id = $1)`
	if _, err := r.db.ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("delete restrictions for course %d: %w", courseID, err)
	}
	return nil
}

// AnonymizeUser zeroes the modifying-user reference on every restriction a
// user touched. Rows are kept for referential and audit purposes.
func (r *RestrictionRepository) AnonymizeUser(ctx context.Context, userID int64) (int64, error) {
	const query = `UPDATE submission_restrictions SET modified_by = 0, updated_at = $2 WHERE modified_by = $1`
	result, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("anonymize restrictions for user %d: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("anonymize restrictions rows affected: %w", err)
	}
	return affected, nil
}

// ListByUser returns every restriction last modified by a user, for privacy
// export.
func (r *RestrictionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Restriction, error) {
	const query = `SELECT id, activity_id, mod_name, new_date, reason, modified_by, created_at, updated_at
FROM submission_restrictions WHERE modified_by = $1 ORDER BY updated_at DESC`
	var records []models.Restriction
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list restrictions for user %d: %w", userID, err)
	}
	return records, nil
}

// ListReport returns a page of the override report joined with activity and
// course names, plus the unfiltered total.
func (r *RestrictionRepository) ListReport(ctx context.Context, filter models.RestrictionFilter) ([]models.RestrictionReportRow, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if filter.ModName != "" {
		where += fmt.Sprintf(" AND r.mod_name = $%d", idx)
		args = append(args, filter.ModName)
		idx++
	}
	if filter.CourseID > 0 {
		where += fmt.Sprintf(" AND a.course_id = $%d", idx)
		args = append(args, filter.CourseID)
		idx++
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM submission_restrictions r
JOIN assignments a ON a.id = r.activity_id %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count restriction report: %w", err)
	}

	query := fmt.Sprintf(`SELECT r.id, r.activity_id, r.mod_name, a.name AS activity_name,
       c.full_name AS course_name, r.new_date, r.reason, r.modified_by, r.updated_at
FROM submission_restrictions r
JOIN assignments a ON a.id = r.activity_id
JOIN courses c ON c.id = a.course_id
%s
ORDER BY r.updated_at DESC
LIMIT $%d OFFSET $%d`, where, idx, idx+1)

	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * filter.PageSize
	}
	args = append(args, filter.PageSize, offset)

	var rows []models.RestrictionReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list restriction report: %w", err)
	}
	return rows, total, nil
}
