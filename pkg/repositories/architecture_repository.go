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

// ArchitectureRepository defines data access for architectures.
type ArchitectureRepository interface {
	Find(ctx context.Context, name string) (*models.Architecture, error)
	Create(ctx context.Context, arch *models.Architecture) error
	Update(ctx context.Context, arch *models.Architecture) error
}

type architectureRepository struct{}

// NewArchitectureRepository creates a new architecture repository.
func NewArchitectureRepository() ArchitectureRepository {
	return &architectureRepository{}
}

func (r *architectureRepository) Find(ctx context.Context, name string) (*models.Architecture, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var a models.Architecture
	err := scope.Conn.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM architectures WHERE name = $1`, name,
	).Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get architecture: %w", err)
	}

	a.OperatingSystemIDs, err = architecturesOperatingSystems.load(ctx, scope.Conn, a.ID)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *architectureRepository) Create(ctx context.Context, arch *models.Architecture) error {
	if err := arch.Validate(); err != nil {
		return err
	}

	if arch.ID == uuid.Nil {
		arch.ID = uuid.New()
	}
	now := time.Now()
	arch.CreatedAt = now
	arch.UpdatedAt = now

	return r.save(ctx, arch,
		`INSERT INTO architectures (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		arch.ID, arch.Name, arch.CreatedAt, arch.UpdatedAt)
}

func (r *architectureRepository) Update(ctx context.Context, arch *models.Architecture) error {
	if err := arch.Validate(); err != nil {
		return err
	}

	arch.UpdatedAt = time.Now()

	return r.save(ctx, arch,
		`UPDATE architectures SET name = $2, updated_at = $3 WHERE id = $1`,
		arch.ID, arch.Name, arch.UpdatedAt)
}

func (r *architectureRepository) save(ctx context.Context, arch *models.Architecture, query string, args ...any) error {
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
		return fmt.Errorf("failed to save architecture: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := architecturesOperatingSystems.replace(ctx, tx, arch.ID, arch.OperatingSystemIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

var _ ArchitectureRepository = (*architectureRepository)(nil)
