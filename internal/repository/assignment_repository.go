package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/submission-restrict-api/internal/models"
)

// AssignmentRepository reads and updates the host's assignment records.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByID fetches one assignment. Returns sql.ErrNoRows on a miss.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	const query = `SELECT id, course_id, name, allow_submissions_from, due_date, cutoff_date
FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdateDueDate writes only the due date.
func (r *AssignmentRepository) UpdateDueDate(ctx context.Context, id, dueDate int64) error {
	const query = `UPDATE assignments SET due_date = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, dueDate); err != nil {
		return fmt.Errorf("update assignment %d due date: %w", id, err)
	}
	return nil
}

// UpdateDates writes due and cutoff dates together.
func (r *AssignmentRepository) UpdateDates(ctx context.Context, id, dueDate, cutoffDate int64) error {
	const query = `UPDATE assignments SET due_date = $2, cutoff_date = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, dueDate, cutoffDate); err != nil {
		return fmt.Errorf("update assignment %d dates: %w", id, err)
	}
	return nil
}

// SearchForReset finds assignments with an active due or cutoff date whose
// course name matches the search substring, for the batch reset tool.
func (r *AssignmentRepository) SearchForReset(ctx context.Context, search string) ([]models.AssignmentResetRow, error) {
	const query = `SELECT a.id, a.name, c.full_name AS course_name, a.due_date, a.cutoff_date
FROM assignments a
JOIN courses c ON c.id = a.course_id
WHERE c.full_name ILIKE $1 AND (a.due_date > 0 OR a.cutoff_date > 0)
ORDER BY c.full_name, a.name`
	var rows []models.AssignmentResetRow
	if err := r.db.SelectContext(ctx, &rows, query, "%"+search+"%"); err != nil {
		return nil, fmt.Errorf("search assignments for reset: %w", err)
	}
	return rows, nil
}
