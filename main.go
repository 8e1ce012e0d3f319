package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/ekaya-inc/quickstack-seed/pkg/config"
	"github.com/ekaya-inc/quickstack-seed/pkg/crypto"
	"github.com/ekaya-inc/quickstack-seed/pkg/database"
	"github.com/ekaya-inc/quickstack-seed/pkg/facts"
	"github.com/ekaya-inc/quickstack-seed/pkg/logging"
	"github.com/ekaya-inc/quickstack-seed/pkg/retry"
	"github.com/ekaya-inc/quickstack-seed/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the YAML configuration file")
	factsFile := flag.String("facts", "", "Read host facts from a facter JSON/YAML dump instead of the local host")
	flag.Parse()

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *factsFile != "" {
		cfg.FactsFile = *factsFile
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // sync on stderr may fail harmlessly

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Seeding failed", zap.String("error", logging.SanitizeError(err)))
		stop()
		logger.Sync() //nolint:errcheck // flushing before exit
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting quickstack-seed",
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("os", cfg.Deployment.OSName+" "+cfg.Deployment.OSMajor+"."+cfg.Deployment.OSMinor))

	db, err := retry.DoWithResult(ctx, retry.ConnectConfig(),
		func(attempt int, err error) {
			logger.Warn("Database not reachable, retrying",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
		},
		func() (*database.DB, error) {
			return database.NewConnection(ctx, &database.Config{
				URL:            cfg.Database.URL(),
				MaxConnections: cfg.Database.MaxConnections,
			})
		})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		sqlDB, err := sql.Open("pgx", cfg.Database.URL())
		if err != nil {
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
		defer sqlDB.Close()
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return err
		}
	}

	var provider facts.Provider
	if cfg.FactsFile != "" {
		logger.Info("Reading facts from file", zap.String("path", cfg.FactsFile))
		provider = facts.NewFileProvider(cfg.FactsFile)
	} else {
		provider = facts.NewLiveProvider()
	}

	scope, err := db.WithScope(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer scope.Close()
	ctx = database.SetScope(ctx, scope)

	repos := services.NewSeedRepositories()
	seeder := services.NewSeedService(
		repos,
		services.NewSettingsService(repos.Settings, logger),
		provider,
		crypto.NewHexSecretGenerator(),
		cfg.Deployment,
		logger,
	)

	seeded, err := seeder.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(seeded.Report.String())
	logger.Info("Seeding complete",
		zap.String("domain", seeded.Domain.Name),
		zap.Int("host_groups", len(seeded.HostGroups)))
	return nil
}
