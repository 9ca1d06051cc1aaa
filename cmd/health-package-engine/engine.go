package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/health-package-engine/internal/catalog"
	"github.com/terra-clan/health-package-engine/internal/config"
	"github.com/terra-clan/health-package-engine/internal/packages"
	"github.com/terra-clan/health-package-engine/internal/scoring"
	"github.com/terra-clan/health-package-engine/internal/storage"
)

// engine bundles the immutable pieces every command needs
type engine struct {
	catalog *catalog.Catalog
	scorer  *scoring.Engine
	builder *packages.Builder
}

// loadEngine reads the catalog, scoring rules and package plan, then
// dry-runs a build so any gap between plan and catalog stops startup.
func loadEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rules, err := scoring.LoadRules(cfg.Engine.ScoringRulesFile)
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewEngine(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring rules: %w", err)
	}

	plan, err := packages.LoadPlan(cfg.Engine.PackagePlanFile)
	if err != nil {
		return nil, err
	}
	builder, err := packages.NewBuilder(cat, plan)
	if err != nil {
		return nil, err
	}
	if err := builder.Validate(); err != nil {
		return nil, fmt.Errorf("package plan does not match catalog: %w", err)
	}

	slog.Info("engine loaded",
		"catalog_source", cfg.Engine.CatalogSource,
		"catalog_version", cat.Version(),
		"catalog_tests", cat.Len(),
		"rules_version", scorer.Version(),
		"domains", scorer.Domains(),
		"plan_version", builder.PlanVersion(),
	)

	return &engine{catalog: cat, scorer: scorer, builder: builder}, nil
}

func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Engine.CatalogSource != config.CatalogSourceDatabase {
		return catalog.LoadFile(cfg.Engine.CatalogFile)
	}

	db, err := catalog.OpenDB(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return catalog.LoadFromDB(ctx, db, "database")
}

// needsMigrations reports whether serving touches the database schema,
// either through the assessment store or the lab_tests catalog.
func needsMigrations(cfg *config.Config) bool {
	return cfg.Store.Backend == config.StorePostgres ||
		cfg.Engine.CatalogSource == config.CatalogSourceDatabase
}

// migrateDatabase applies pending migrations. It runs before the catalog
// is loaded so a fresh database already has lab_tests.
func migrateDatabase(ctx context.Context, cfg *config.Config) error {
	if !needsMigrations(cfg) {
		return nil
	}

	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(ctx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// openStore returns the configured assessment repository, or nil when
// results are not kept.
func openStore(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		slog.Warn("using in-memory assessment store; data is lost on restart")
		return storage.NewMemoryRepository(), nil

	case config.StorePostgres:
		repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		})
		if err != nil {
			return nil, err
		}
		slog.Info("database connected successfully")
		return repo, nil

	case config.StoreRedis:
		repo, err := storage.NewRedisRepository(ctx, storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("redis connected successfully", "ttl", cfg.Redis.TTL)
		return repo, nil

	default:
		slog.Info("assessment storage disabled")
		return nil, nil
	}
}
