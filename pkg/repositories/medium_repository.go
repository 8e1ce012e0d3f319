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

// MediumRepository defines data access for installation media.
type MediumRepository interface {
	Find(ctx context.Context, name string) (*models.Medium, error)
	Create(ctx context.Context, medium *models.Medium) error
	Update(ctx context.Context, medium *models.Medium) error
}

type mediumRepository struct{}

// NewMediumRepository creates a new medium repository.
func NewMediumRepository() MediumRepository {
	return &mediumRepository{}
}

// Find retrieves a medium by name together with its operating systems.
func (r *mediumRepository) Find(ctx context.Context, name string) (*models.Medium, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, path, COALESCE(os_family, ''), created_at, updated_at
		FROM media
		WHERE name = $1`

	var m models.Medium
	err := scope.Conn.QueryRow(ctx, query, name).Scan(
		&m.ID, &m.Name, &m.Path, &m.OSFamily, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get medium: %w", err)
	}

	m.OperatingSystemIDs, err = mediaOperatingSystems.load(ctx, scope.Conn, m.ID)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// Create inserts a new medium and links its operating systems.
func (r *mediumRepository) Create(ctx context.Context, medium *models.Medium) error {
	if err := medium.Validate(); err != nil {
		return err
	}

	if medium.ID == uuid.Nil {
		medium.ID = uuid.New()
	}
	now := time.Now()
	medium.CreatedAt = now
	medium.UpdatedAt = now

	query := `
		INSERT INTO media (id, name, path, os_family, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	return r.save(ctx, medium, query,
		medium.ID, medium.Name, medium.Path, medium.OSFamily, medium.CreatedAt, medium.UpdatedAt)
}

// Update overwrites a medium and replaces its operating system links.
func (r *mediumRepository) Update(ctx context.Context, medium *models.Medium) error {
	if err := medium.Validate(); err != nil {
		return err
	}

	medium.UpdatedAt = time.Now()

	query := `
		UPDATE media
		SET name = $2, path = $3, os_family = $4, updated_at = $5
		WHERE id = $1`

	return r.save(ctx, medium, query,
		medium.ID, medium.Name, medium.Path, medium.OSFamily, medium.UpdatedAt)
}

func (r *mediumRepository) save(ctx context.Context, medium *models.Medium, query string, args ...any) error {
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
		return fmt.Errorf("failed to save medium: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := mediaOperatingSystems.replace(ctx, tx, medium.ID, medium.OperatingSystemIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

var _ MediumRepository = (*mediumRepository)(nil)
