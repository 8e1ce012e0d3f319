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

// DomainRepository defines data access for DNS domains.
type DomainRepository interface {
	Find(ctx context.Context, name string) (*models.Domain, error)
	Create(ctx context.Context, domain *models.Domain) error
	Update(ctx context.Context, domain *models.Domain) error
}

type domainRepository struct{}

// NewDomainRepository creates a new domain repository.
func NewDomainRepository() DomainRepository {
	return &domainRepository{}
}

func (r *domainRepository) Find(ctx context.Context, name string) (*models.Domain, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, COALESCE(fullname, ''), dns_id, created_at, updated_at
		FROM domains
		WHERE name = $1`

	var d models.Domain
	err := scope.Conn.QueryRow(ctx, query, name).Scan(
		&d.ID, &d.Name, &d.Fullname, &d.DNSID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}

	return &d, nil
}

func (r *domainRepository) Create(ctx context.Context, domain *models.Domain) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if err := domain.Validate(); err != nil {
		return err
	}

	if domain.ID == uuid.Nil {
		domain.ID = uuid.New()
	}
	now := time.Now()
	domain.CreatedAt = now
	domain.UpdatedAt = now

	query := `
		INSERT INTO domains (id, name, fullname, dns_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := scope.Conn.Exec(ctx, query,
		domain.ID, domain.Name, domain.Fullname, domain.DNSID, domain.CreatedAt, domain.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}

	return nil
}

func (r *domainRepository) Update(ctx context.Context, domain *models.Domain) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if err := domain.Validate(); err != nil {
		return err
	}

	domain.UpdatedAt = time.Now()

	query := `
		UPDATE domains
		SET name = $2, fullname = $3, dns_id = $4, updated_at = $5
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query,
		domain.ID, domain.Name, domain.Fullname, domain.DNSID, domain.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update domain: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

var _ DomainRepository = (*domainRepository)(nil)
