package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the subset of pgx shared by *pgxpool.Conn and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// linkTable describes a many-to-many join table owned by one side.
// Names are compile-time constants, never user input.
type linkTable struct {
	table    string
	ownerCol string
	otherCol string
}

var (
	mediaOperatingSystems           = linkTable{"media_operatingsystems", "medium_id", "operatingsystem_id"}
	architecturesOperatingSystems   = linkTable{"architectures_operatingsystems", "architecture_id", "operatingsystem_id"}
	configTemplatesOperatingSystems = linkTable{"config_templates_operatingsystems", "config_template_id", "operatingsystem_id"}
	operatingSystemsPtables         = linkTable{"operatingsystems_ptables", "operatingsystem_id", "ptable_id"}
	subnetDomains                   = linkTable{"subnet_domains", "subnet_id", "domain_id"}
	hostgroupClasses                = linkTable{"hostgroup_classes", "hostgroup_id", "puppetclass_id"}
)

// load returns the linked IDs for owner in insertion-independent, stable order.
func (l linkTable) load(ctx context.Context, q querier, owner uuid.UUID) ([]uuid.UUID, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s`, l.otherCol, l.table, l.ownerCol, l.otherCol)

	rows, err := q.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", l.table, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", l.table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", l.table, err)
	}
	return ids, nil
}

// replace makes the join table hold exactly ids for owner.
func (l linkTable) replace(ctx context.Context, q querier, owner uuid.UUID, ids []uuid.UUID) error {
	del := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, l.table, l.ownerCol)
	if _, err := q.Exec(ctx, del, owner); err != nil {
		return fmt.Errorf("failed to clear %s: %w", l.table, err)
	}

	ins := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, l.table, l.ownerCol, l.otherCol)
	for _, id := range ids {
		if _, err := q.Exec(ctx, ins, owner, id); err != nil {
			return fmt.Errorf("failed to link %s: %w", l.table, err)
		}
	}
	return nil
}
