package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/database"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
)

// EnvironmentRepository looks up puppet environments. Environments are
// imported by the management system together with the puppet classes.
type EnvironmentRepository interface {
	FindByName(ctx context.Context, name string) (*models.Environment, error)
}

type environmentRepository struct{}

// NewEnvironmentRepository creates a new environment repository.
func NewEnvironmentRepository() EnvironmentRepository {
	return &environmentRepository{}
}

func (r *environmentRepository) FindByName(ctx context.Context, name string) (*models.Environment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var e models.Environment
	err := scope.Conn.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM environments WHERE name = $1`, name,
	).Scan(&e.ID, &e.Name, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get environment: %w", err)
	}

	return &e, nil
}

var _ EnvironmentRepository = (*environmentRepository)(nil)
