package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/database"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
)

// OperatingSystemRepository defines data access for operating systems.
type OperatingSystemRepository interface {
	Find(ctx context.Context, key models.OperatingSystemKey) (*models.OperatingSystem, error)
	Create(ctx context.Context, os *models.OperatingSystem) error
	Update(ctx context.Context, os *models.OperatingSystem) error
}

type operatingSystemRepository struct{}

// NewOperatingSystemRepository creates a new operating system repository.
func NewOperatingSystemRepository() OperatingSystemRepository {
	return &operatingSystemRepository{}
}

// Find retrieves an operating system by (name, major, minor), including its
// partition tables and default templates.
func (r *operatingSystemRepository) Find(ctx context.Context, key models.OperatingSystemKey) (*models.OperatingSystem, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, major, minor, COALESCE(type, ''), created_at, updated_at
		FROM operatingsystems
		WHERE name = $1 AND major = $2 AND minor = $3`

	var os models.OperatingSystem
	err := scope.Conn.QueryRow(ctx, query, key.Name, key.Major, key.Minor).Scan(
		&os.ID, &os.Name, &os.Major, &os.Minor, &os.Type, &os.CreatedAt, &os.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get operating system: %w", err)
	}

	os.PtableIDs, err = operatingSystemsPtables.load(ctx, scope.Conn, os.ID)
	if err != nil {
		return nil, err
	}

	os.DefaultTemplates, err = loadDefaultTemplates(ctx, scope.Conn, os.ID)
	if err != nil {
		return nil, err
	}

	return &os, nil
}

// Create inserts a new operating system with its owned associations.
func (r *operatingSystemRepository) Create(ctx context.Context, os *models.OperatingSystem) error {
	if err := os.Validate(); err != nil {
		return err
	}

	if os.ID == uuid.Nil {
		os.ID = uuid.New()
	}
	now := time.Now()
	os.CreatedAt = now
	os.UpdatedAt = now

	query := `
		INSERT INTO operatingsystems (id, name, major, minor, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	return r.save(ctx, os, query, os.ID, os.Name, os.Major, os.Minor, os.Type, os.CreatedAt, os.UpdatedAt)
}

// Update overwrites the operating system's mutable fields and replaces its
// partition table and default template associations.
func (r *operatingSystemRepository) Update(ctx context.Context, os *models.OperatingSystem) error {
	if err := os.Validate(); err != nil {
		return err
	}

	os.UpdatedAt = time.Now()

	query := `
		UPDATE operatingsystems
		SET name = $2, major = $3, minor = $4, type = $5, updated_at = $6
		WHERE id = $1`

	return r.save(ctx, os, query, os.ID, os.Name, os.Major, os.Minor, os.Type, os.UpdatedAt)
}

func (r *operatingSystemRepository) save(ctx context.Context, os *models.OperatingSystem, query string, args ...any) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save operating system: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := operatingSystemsPtables.replace(ctx, tx, os.ID, os.PtableIDs); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM os_default_templates WHERE operatingsystem_id = $1`, os.ID); err != nil {
		return fmt.Errorf("failed to clear default templates: %w", err)
	}
	for _, dt := range os.DefaultTemplates {
		_, err := tx.Exec(ctx, `
			INSERT INTO os_default_templates (operatingsystem_id, template_kind_id, config_template_id)
			VALUES ($1, $2, $3)`,
			os.ID, dt.TemplateKindID, dt.ConfigTemplateID)
		if err != nil {
			return fmt.Errorf("failed to save default template: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func loadDefaultTemplates(ctx context.Context, q querier, osID uuid.UUID) ([]models.OSDefaultTemplate, error) {
	rows, err := q.Query(ctx, `
		SELECT template_kind_id, config_template_id
		FROM os_default_templates
		WHERE operatingsystem_id = $1
		ORDER BY template_kind_id`, osID)
	if err != nil {
		return nil, fmt.Errorf("failed to load default templates: %w", err)
	}
	defer rows.Close()

	templates := make([]models.OSDefaultTemplate, 0)
	for rows.Next() {
		var dt models.OSDefaultTemplate
		if err := rows.Scan(&dt.TemplateKindID, &dt.ConfigTemplateID); err != nil {
			return nil, fmt.Errorf("failed to scan default template: %w", err)
		}
		templates = append(templates, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate default templates: %w", err)
	}

	return templates, nil
}

var _ OperatingSystemRepository = (*operatingSystemRepository)(nil)
