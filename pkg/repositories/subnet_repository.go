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

// SubnetRepository defines data access for subnets.
type SubnetRepository interface {
	Find(ctx context.Context, name string) (*models.Subnet, error)
	Create(ctx context.Context, subnet *models.Subnet) error
	Update(ctx context.Context, subnet *models.Subnet) error
}

type subnetRepository struct{}

// NewSubnetRepository creates a new subnet repository.
func NewSubnetRepository() SubnetRepository {
	return &subnetRepository{}
}

// Find retrieves a subnet by name together with its domains.
func (r *subnetRepository) Find(ctx context.Context, name string) (*models.Subnet, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, network, mask, dhcp_id, dns_id, tftp_id, created_at, updated_at
		FROM subnets
		WHERE name = $1`

	var s models.Subnet
	err := scope.Conn.QueryRow(ctx, query, name).Scan(
		&s.ID, &s.Name, &s.Network, &s.Mask, &s.DHCPID, &s.DNSID, &s.TFTPID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subnet: %w", err)
	}

	s.DomainIDs, err = subnetDomains.load(ctx, scope.Conn, s.ID)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *subnetRepository) Create(ctx context.Context, subnet *models.Subnet) error {
	if err := subnet.Validate(); err != nil {
		return err
	}

	if subnet.ID == uuid.Nil {
		subnet.ID = uuid.New()
	}
	now := time.Now()
	subnet.CreatedAt = now
	subnet.UpdatedAt = now

	query := `
		INSERT INTO subnets (id, name, network, mask, dhcp_id, dns_id, tftp_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	return r.save(ctx, subnet, query,
		subnet.ID, subnet.Name, subnet.Network, subnet.Mask,
		subnet.DHCPID, subnet.DNSID, subnet.TFTPID, subnet.CreatedAt, subnet.UpdatedAt)
}

func (r *subnetRepository) Update(ctx context.Context, subnet *models.Subnet) error {
	if err := subnet.Validate(); err != nil {
		return err
	}

	subnet.UpdatedAt = time.Now()

	query := `
		UPDATE subnets
		SET name = $2, network = $3, mask = $4, dhcp_id = $5, dns_id = $6, tftp_id = $7, updated_at = $8
		WHERE id = $1`

	return r.save(ctx, subnet, query,
		subnet.ID, subnet.Name, subnet.Network, subnet.Mask,
		subnet.DHCPID, subnet.DNSID, subnet.TFTPID, subnet.UpdatedAt)
}

func (r *subnetRepository) save(ctx context.Context, subnet *models.Subnet, query string, args ...any) error {
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
		return fmt.Errorf("failed to save subnet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := subnetDomains.replace(ctx, tx, subnet.ID, subnet.DomainIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

var _ SubnetRepository = (*subnetRepository)(nil)
