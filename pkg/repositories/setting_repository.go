package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/database"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
)

// SettingRepository defines data access for global settings.
type SettingRepository interface {
	Get(ctx context.Context, name string) (*models.Setting, error)
	Set(ctx context.Context, setting *models.Setting) error
}

type settingRepository struct{}

// NewSettingRepository creates a new setting repository.
func NewSettingRepository() SettingRepository {
	return &settingRepository{}
}

// Get retrieves a setting by name.
func (r *settingRepository) Get(ctx context.Context, name string) (*models.Setting, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var s models.Setting
	var value *string
	err := scope.Conn.QueryRow(ctx,
		`SELECT name, value, updated_at FROM settings WHERE name = $1`, name,
	).Scan(&s.Name, &value, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	if value != nil {
		s.Value = *value
	}

	return &s, nil
}

// Set creates or overwrites a setting.
func (r *settingRepository) Set(ctx context.Context, setting *models.Setting) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	setting.UpdatedAt = time.Now()

	query := `
		INSERT INTO settings (name, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at`

	if _, err := scope.Conn.Exec(ctx, query, setting.Name, setting.Value, setting.UpdatedAt); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", setting.Name, err)
	}

	return nil
}

var _ SettingRepository = (*settingRepository)(nil)
