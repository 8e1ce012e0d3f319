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

// ConfigTemplateRepository defines data access for provisioning templates.
type ConfigTemplateRepository interface {
	Find(ctx context.Context, name string) (*models.ConfigTemplate, error)
	Create(ctx context.Context, tmpl *models.ConfigTemplate) error
	Update(ctx context.Context, tmpl *models.ConfigTemplate) error
}

type configTemplateRepository struct{}

// NewConfigTemplateRepository creates a new config template repository.
func NewConfigTemplateRepository() ConfigTemplateRepository {
	return &configTemplateRepository{}
}

// Find retrieves a template by name together with its operating systems.
func (r *configTemplateRepository) Find(ctx context.Context, name string) (*models.ConfigTemplate, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, template, snippet, template_kind_id, created_at, updated_at
		FROM config_templates
		WHERE name = $1`

	var t models.ConfigTemplate
	err := scope.Conn.QueryRow(ctx, query, name).Scan(
		&t.ID, &t.Name, &t.Template, &t.Snippet, &t.TemplateKindID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get config template: %w", err)
	}

	t.OperatingSystemIDs, err = configTemplatesOperatingSystems.load(ctx, scope.Conn, t.ID)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *configTemplateRepository) Create(ctx context.Context, tmpl *models.ConfigTemplate) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}

	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	now := time.Now()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	query := `
		INSERT INTO config_templates (id, name, template, snippet, template_kind_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	return r.save(ctx, tmpl, query,
		tmpl.ID, tmpl.Name, tmpl.Template, tmpl.Snippet, tmpl.TemplateKindID, tmpl.CreatedAt, tmpl.UpdatedAt)
}

func (r *configTemplateRepository) Update(ctx context.Context, tmpl *models.ConfigTemplate) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}

	tmpl.UpdatedAt = time.Now()

	query := `
		UPDATE config_templates
		SET name = $2, template = $3, snippet = $4, template_kind_id = $5, updated_at = $6
		WHERE id = $1`

	return r.save(ctx, tmpl, query,
		tmpl.ID, tmpl.Name, tmpl.Template, tmpl.Snippet, tmpl.TemplateKindID, tmpl.UpdatedAt)
}

func (r *configTemplateRepository) save(ctx context.Context, tmpl *models.ConfigTemplate, query string, args ...any) error {
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
		return fmt.Errorf("failed to save config template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := configTemplatesOperatingSystems.replace(ctx, tx, tmpl.ID, tmpl.OperatingSystemIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

var _ ConfigTemplateRepository = (*configTemplateRepository)(nil)
