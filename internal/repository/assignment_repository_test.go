package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "course_id", "name", "allow_submissions_from", "due_date", "cutoff_date"}).
		AddRow(7, 3, "Essay 1", 0, 1636707300, 0)
	mock.ExpectQuery("SELECT id, course_id").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	assignment, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Essay 1", assignment.Name)
	assert.Equal(t, int64(1636707300), assignment.DueDate)
}

func TestAssignmentRepositoryUpdateDueDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec("UPDATE assignments SET due_date").
		WithArgs(int64(7), int64(1636707300)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateDueDate(context.Background(), 7, 1636707300))
}

func TestAssignmentRepositoryUpdateDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec("UPDATE assignments SET due_date").
		WithArgs(int64(7), int64(100), int64(200)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateDates(context.Background(), 7, 100, 200))
}

func TestAssignmentRepositorySearchForReset(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "name", "course_name", "due_date", "cutoff_date"}).
		AddRow(7, "Essay 1", "History 101", 1636707300, 0).
		AddRow(8, "Essay 2", "History 101", 0, 1636707300)
	mock.ExpectQuery("SELECT a.id, a.name").
		WithArgs("%History%").
		WillReturnRows(rows)

	result, err := repo.SearchForReset(context.Background(), "History")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "History 101", result[0].CourseName)
}
