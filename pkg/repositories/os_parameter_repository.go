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

// OsParameterRepository defines data access for operating system parameters.
type OsParameterRepository interface {
	Find(ctx context.Context, name string) (*models.OsParameter, error)
	Create(ctx context.Context, param *models.OsParameter) error
	Update(ctx context.Context, param *models.OsParameter) error
}

type osParameterRepository struct{}

// NewOsParameterRepository creates a new operating system parameter repository.
func NewOsParameterRepository() OsParameterRepository {
	return &osParameterRepository{}
}

// Find retrieves a parameter by name, whichever operating system it references.
func (r *osParameterRepository) Find(ctx context.Context, name string) (*models.OsParameter, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var p models.OsParameter
	err := scope.Conn.QueryRow(ctx,
		`SELECT id, name, COALESCE(value, ''), reference_id, created_at, updated_at
		 FROM os_parameters WHERE name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.Value, &p.ReferenceID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get operating system parameter: %w", err)
	}

	return &p, nil
}

func (r *osParameterRepository) Create(ctx context.Context, param *models.OsParameter) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if err := param.Validate(); err != nil {
		return err
	}

	if param.ID == uuid.Nil {
		param.ID = uuid.New()
	}
	param.CreatedAt = time.Now()
	param.UpdatedAt = param.CreatedAt

	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO os_parameters (id, name, value, reference_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		param.ID, param.Name, param.Value, param.ReferenceID, param.CreatedAt, param.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create operating system parameter %s: %w", param.Name, err)
	}

	return nil
}

func (r *osParameterRepository) Update(ctx context.Context, param *models.OsParameter) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if err := param.Validate(); err != nil {
		return err
	}

	param.UpdatedAt = time.Now()

	result, err := scope.Conn.Exec(ctx, `
		UPDATE os_parameters
		SET value = $2, reference_id = $3, updated_at = $4
		WHERE id = $1`,
		param.ID, param.Value, param.ReferenceID, param.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update operating system parameter %s: %w", param.Name, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

var _ OsParameterRepository = (*osParameterRepository)(nil)
