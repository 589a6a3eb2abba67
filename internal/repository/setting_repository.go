package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/submission-restrict-api/internal/models"
)

// SettingRepository persists named string-valued settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get fetches a single setting by name. Returns sql.ErrNoRows on a miss.
func (r *SettingRepository) Get(ctx context.Context, name string) (*models.Setting, error) {
	const query = `SELECT name, value, updated_by, updated_at FROM settings WHERE name = $1`
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, query, name); err != nil {
		return nil, err
	}
	return &setting, nil
}

// ListByNames returns settings whose name is in the provided slice.
func (r *SettingRepository) ListByNames(ctx context.Context, names []string) ([]models.Setting, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT name, value, updated_by, updated_at
FROM settings WHERE name IN (%s) ORDER BY name ASC`, placeholders(len(names)))
	args := make([]interface{}, len(names))
	for i, name := range names {
		args[i] = name
	}
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query, args...); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Upsert inserts or updates a setting entry.
func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	const query = `INSERT INTO settings (name, value, updated_by, updated_at)
VALUES (:name, :value, :updated_by, :updated_at)
ON CONFLICT (name)
DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	setting.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}
