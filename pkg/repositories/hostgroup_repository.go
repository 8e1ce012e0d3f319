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

// HostGroupRepository defines data access for host groups.
type HostGroupRepository interface {
	Find(ctx context.Context, name string) (*models.HostGroup, error)
	Create(ctx context.Context, hg *models.HostGroup) error
	Update(ctx context.Context, hg *models.HostGroup) error
}

type hostGroupRepository struct{}

// NewHostGroupRepository creates a new host group repository.
func NewHostGroupRepository() HostGroupRepository {
	return &hostGroupRepository{}
}

// Find retrieves a host group by name together with its puppet classes.
func (r *hostGroupRepository) Find(ctx context.Context, name string) (*models.HostGroup, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, environment_id, puppet_proxy_id, puppet_ca_proxy_id,
		       operatingsystem_id, architecture_id, medium_id, ptable_id, subnet_id, domain_id,
		       created_at, updated_at
		FROM hostgroups
		WHERE name = $1`

	var hg models.HostGroup
	err := scope.Conn.QueryRow(ctx, query, name).Scan(
		&hg.ID, &hg.Name, &hg.EnvironmentID, &hg.PuppetProxyID, &hg.PuppetCAProxyID,
		&hg.OperatingSystemID, &hg.ArchitectureID, &hg.MediumID, &hg.PtableID, &hg.SubnetID, &hg.DomainID,
		&hg.CreatedAt, &hg.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get host group: %w", err)
	}

	hg.PuppetclassIDs, err = hostgroupClasses.load(ctx, scope.Conn, hg.ID)
	if err != nil {
		return nil, err
	}

	return &hg, nil
}

func (r *hostGroupRepository) Create(ctx context.Context, hg *models.HostGroup) error {
	if err := hg.Validate(); err != nil {
		return err
	}

	if hg.ID == uuid.Nil {
		hg.ID = uuid.New()
	}
	now := time.Now()
	hg.CreatedAt = now
	hg.UpdatedAt = now

	query := `
		INSERT INTO hostgroups (id, name, environment_id, puppet_proxy_id, puppet_ca_proxy_id,
		                        operatingsystem_id, architecture_id, medium_id, ptable_id, subnet_id, domain_id,
		                        created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	return r.save(ctx, hg, query,
		hg.ID, hg.Name, hg.EnvironmentID, hg.PuppetProxyID, hg.PuppetCAProxyID,
		hg.OperatingSystemID, hg.ArchitectureID, hg.MediumID, hg.PtableID, hg.SubnetID, hg.DomainID,
		hg.CreatedAt, hg.UpdatedAt)
}

func (r *hostGroupRepository) Update(ctx context.Context, hg *models.HostGroup) error {
	if err := hg.Validate(); err != nil {
		return err
	}

	hg.UpdatedAt = time.Now()

	query := `
		UPDATE hostgroups
		SET name = $2, environment_id = $3, puppet_proxy_id = $4, puppet_ca_proxy_id = $5,
		    operatingsystem_id = $6, architecture_id = $7, medium_id = $8, ptable_id = $9,
		    subnet_id = $10, domain_id = $11, updated_at = $12
		WHERE id = $1`

	return r.save(ctx, hg, query,
		hg.ID, hg.Name, hg.EnvironmentID, hg.PuppetProxyID, hg.PuppetCAProxyID,
		hg.OperatingSystemID, hg.ArchitectureID, hg.MediumID, hg.PtableID, hg.SubnetID, hg.DomainID,
		hg.UpdatedAt)
}

func (r *hostGroupRepository) save(ctx context.Context, hg *models.HostGroup, query string, args ...any) error {
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
		return fmt.Errorf("failed to save host group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := hostgroupClasses.replace(ctx, tx, hg.ID, hg.PuppetclassIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

var _ HostGroupRepository = (*hostGroupRepository)(nil)
