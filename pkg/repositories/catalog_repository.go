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

// Records in this file are registered by the management system itself
// (template kinds, smart proxies, imported puppet classes). The seeder only
// reads them, apart from overriding class parameter defaults.

// TemplateKindRepository looks up template kinds.
type TemplateKindRepository interface {
	FindByName(ctx context.Context, name string) (*models.TemplateKind, error)
}

// SmartProxyRepository resolves smart proxies by the features they offer.
type SmartProxyRepository interface {
	// FirstWithFeature returns the first proxy (by name) offering feature.
	// It returns apperrors.ErrNotFound when the feature itself is unknown and
	// (nil, nil) when the feature exists but no proxy offers it.
	FirstWithFeature(ctx context.Context, feature string) (*models.SmartProxy, error)
}

// PuppetclassRepository looks up imported puppet classes.
type PuppetclassRepository interface {
	FindByName(ctx context.Context, name string) (*models.Puppetclass, error)
}

// LookupKeyRepository reads and overrides class parameters.
type LookupKeyRepository interface {
	FindForClass(ctx context.Context, puppetclassID uuid.UUID, key string) (*models.LookupKey, error)
	Update(ctx context.Context, lk *models.LookupKey) error
}

type templateKindRepository struct{}

// NewTemplateKindRepository creates a new template kind repository.
func NewTemplateKindRepository() TemplateKindRepository {
	return &templateKindRepository{}
}

func (r *templateKindRepository) FindByName(ctx context.Context, name string) (*models.TemplateKind, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var k models.TemplateKind
	err := scope.Conn.QueryRow(ctx, `SELECT id, name FROM template_kinds WHERE name = $1`, name).Scan(&k.ID, &k.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template kind: %w", err)
	}

	return &k, nil
}

type smartProxyRepository struct{}

// NewSmartProxyRepository creates a new smart proxy repository.
func NewSmartProxyRepository() SmartProxyRepository {
	return &smartProxyRepository{}
}

func (r *smartProxyRepository) FirstWithFeature(ctx context.Context, feature string) (*models.SmartProxy, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var featureID uuid.UUID
	err := scope.Conn.QueryRow(ctx, `SELECT id FROM features WHERE name = $1`, feature).Scan(&featureID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get feature: %w", err)
	}

	query := `
		SELECT p.id, p.name, p.url
		FROM smart_proxies p
		JOIN smart_proxy_features spf ON spf.smart_proxy_id = p.id
		WHERE spf.feature_id = $1
		ORDER BY p.name
		LIMIT 1`

	var p models.SmartProxy
	err = scope.Conn.QueryRow(ctx, query, featureID).Scan(&p.ID, &p.Name, &p.URL)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get smart proxy for %s: %w", feature, err)
	}

	return &p, nil
}

type puppetclassRepository struct{}

// NewPuppetclassRepository creates a new puppet class repository.
func NewPuppetclassRepository() PuppetclassRepository {
	return &puppetclassRepository{}
}

func (r *puppetclassRepository) FindByName(ctx context.Context, name string) (*models.Puppetclass, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	var c models.Puppetclass
	err := scope.Conn.QueryRow(ctx, `SELECT id, name FROM puppetclasses WHERE name = $1`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get puppet class: %w", err)
	}

	return &c, nil
}

type lookupKeyRepository struct{}

// NewLookupKeyRepository creates a new lookup key repository.
func NewLookupKeyRepository() LookupKeyRepository {
	return &lookupKeyRepository{}
}

func (r *lookupKeyRepository) FindForClass(ctx context.Context, puppetclassID uuid.UUID, key string) (*models.LookupKey, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, puppetclass_id, key, COALESCE(default_value, ''), override, updated_at
		FROM lookup_keys
		WHERE puppetclass_id = $1 AND key = $2`

	var lk models.LookupKey
	err := scope.Conn.QueryRow(ctx, query, puppetclassID, key).Scan(
		&lk.ID, &lk.PuppetclassID, &lk.Key, &lk.DefaultValue, &lk.Override, &lk.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lookup key: %w", err)
	}

	return &lk, nil
}

func (r *lookupKeyRepository) Update(ctx context.Context, lk *models.LookupKey) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	lk.UpdatedAt = time.Now()

	query := `
		UPDATE lookup_keys
		SET default_value = $2, override = $3, updated_at = $4
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, lk.ID, lk.DefaultValue, lk.Override, lk.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update lookup key %s: %w", lk.Key, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

var (
	_ TemplateKindRepository = (*templateKindRepository)(nil)
	_ SmartProxyRepository   = (*smartProxyRepository)(nil)
	_ PuppetclassRepository  = (*puppetclassRepository)(nil)
	_ LookupKeyRepository    = (*lookupKeyRepository)(nil)
)
