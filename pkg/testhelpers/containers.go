package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/quickstack-seed/pkg/catalog"
	"github.com/ekaya-inc/quickstack-seed/pkg/database"
)

// PostgresImage is the PostgreSQL image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// TestDB holds a shared test database container and connection pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "foreman_test",
			"POSTGRES_USER":     "foreman",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The entrypoint restarts postgres once after init; wait for the second ready line.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://foreman:test_password@%s:%s/foreman_test?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// SeedDB holds the provisioning database connection with migrations applied.
// Use this for testing repositories and the seeder against a real database.
type SeedDB struct {
	DB      *database.DB
	ConnStr string
}

var (
	sharedSeedDB     *SeedDB
	sharedSeedDBOnce sync.Once
	sharedSeedDBErr  error
)

// GetSeedDB returns a shared database with migrations applied, reused across tests.
func GetSeedDB(t *testing.T) *SeedDB {
	t.Helper()

	testDB := GetTestDB(t)

	sharedSeedDBOnce.Do(func() {
		sharedSeedDB, sharedSeedDBErr = setupSeedDB(testDB)
	})

	if sharedSeedDBErr != nil {
		t.Fatalf("Failed to setup seed database: %v", sharedSeedDBErr)
	}

	return sharedSeedDB
}

func setupSeedDB(testDB *TestDB) (*SeedDB, error) {
	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            testDB.ConnStr,
		MaxConnections: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to seed database: %w", err)
	}

	// Run migrations using database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", testDB.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SeedDB{
		DB:      db,
		ConnStr: testDB.ConnStr,
	}, nil
}

// seededTables lists every table written by the seeder or the catalog, children first.
var seededTables = []string{
	"hostgroup_classes", "hostgroups", "environments",
	"os_default_templates", "config_templates_operatingsystems", "config_templates",
	"operatingsystems_ptables", "ptables",
	"subnet_domains", "subnets", "domains",
	"architectures_operatingsystems", "architectures",
	"media_operatingsystems", "media", "os_parameters", "operatingsystems",
	"lookup_keys", "puppetclasses", "template_kinds",
	"smart_proxy_features", "smart_proxies", "features",
	"settings",
}

// Reset empties every table so a test starts from an empty store.
func (s *SeedDB) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, table := range seededTables {
		if _, err := s.DB.Pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to reset %s: %v", table, err)
		}
	}
}

// RegisterCatalog registers the given catalog of externally owned records.
func (s *SeedDB) RegisterCatalog(t *testing.T, c catalog.Catalog) {
	t.Helper()
	if err := catalog.Register(context.Background(), s.DB.Pool, c); err != nil {
		t.Fatalf("failed to register catalog: %v", err)
	}
}

// ScopedContext returns a context carrying a database scope and its cleanup.
func (s *SeedDB) ScopedContext(t *testing.T) (context.Context, func()) {
	t.Helper()
	ctx := context.Background()
	scope, err := s.DB.WithScope(ctx)
	if err != nil {
		t.Fatalf("failed to acquire database scope: %v", err)
	}
	return database.SetScope(ctx, scope), scope.Close
}

// Count returns the number of rows in table.
func (s *SeedDB) Count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := s.DB.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
