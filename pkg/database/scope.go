package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplicationName tags seeding connections in pg_stat_activity.
const ApplicationName = "quickstack-seed"

// Scope wraps a single acquired connection. Every repository call made during
// a seeding run goes through the same connection, so the run observes its own
// writes in order.
type Scope struct {
	Conn *pgxpool.Conn
}

// Close resets the session tag and releases the connection to the pool.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET application_name")
	s.Conn.Release()
}

// WithScope acquires a connection and tags it with ApplicationName.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) WithScope(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('application_name', $1, false)", ApplicationName)
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &Scope{Conn: conn}, nil
}
