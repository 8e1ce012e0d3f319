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

// PtableRepository defines data access for partition table templates.
type PtableRepository interface {
	Find(ctx context.Context, name string) (*models.Ptable, error)
	Create(ctx context.Context, ptable *models.Ptable) error
	Update(ctx context.Context, ptable *models.Ptable) error
}

type ptableRepository struct{}

// NewPtableRepository creates a new partition table repository.
func NewPtableRepository() PtableRepository {
	return &ptableRepository{}
}

func (r *ptableRepository) Find(ctx context.Context, name string) (*models.Ptable, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, layout, COALESCE(os_family, ''), created_at, updated_at
		FROM ptables
		WHERE name = $1`

	var p models.Ptable
	err := scope.Conn.QueryRow(ctx, query, name).Scan(
		&p.ID, &p.Name, &p.Layout, &p.OSFamily, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get partition table: %w", err)
	}

	return &p, nil
}

func (r *ptableRepository) Create(ctx context.Context, ptable *models.Ptable) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if err := ptable.Validate(); err != nil {
		return err
	}

	if ptable.ID == uuid.Nil {
		ptable.ID = uuid.New()
	}
	now := time.Now()
	ptable.CreatedAt = now
	ptable.UpdatedAt = now

	query := `
		INSERT INTO ptables (id, name, layout, os_family, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := scope.Conn.Exec(ctx, query,
		ptable.ID, ptable.Name, ptable.Layout, ptable.OSFamily, ptable.CreatedAt, ptable.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create partition table: %w", err)
	}

	return nil
}

func (r *ptableRepository) Update(ctx context.Context, ptable *models.Ptable) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if err := ptable.Validate(); err != nil {
		return err
	}

	ptable.UpdatedAt = time.Now()

	query := `
		UPDATE ptables
		SET name = $2, layout = $3, os_family = $4, updated_at = $5
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query,
		ptable.ID, ptable.Name, ptable.Layout, ptable.OSFamily, ptable.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update partition table: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

var _ PtableRepository = (*ptableRepository)(nil)
