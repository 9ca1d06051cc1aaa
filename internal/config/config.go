package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Catalog sources
const (
	CatalogSourceFile     = "file"
	CatalogSourceDatabase = "database"
)

// Assessment store backends
const (
	StoreNone     = "none"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration for health-package-engine
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Engine   EngineConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cleanup  CleanupConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string
}

// EngineConfig points at the rule, plan and catalog sources
type EngineConfig struct {
	CatalogSource    string
	CatalogFile      string
	ScoringRulesFile string
	PackagePlanFile  string
}

// StoreConfig selects where evaluated assessments are kept
type StoreConfig struct {
	Backend string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	MaxOpenConns  int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:   int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 1<<20)),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			CatalogSource:    strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceFile)),
			CatalogFile:      getEnv("CATALOG_FILE", "./configs/catalog.yaml"),
			ScoringRulesFile: getEnv("SCORING_RULES_FILE", "./configs/scoring.yaml"),
			PackagePlanFile:  getEnv("PACKAGE_PLAN_FILE", "./configs/packages.yaml"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreNone)),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", ""),
			MaxOpenConns:  getEnvAsInt("DATABASE_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", 24*time.Hour),
		},
		Cleanup: CleanupConfig{
			Interval:  getEnvAsDuration("CLEANUP_INTERVAL", 15*time.Minute),
			Retention: getEnvAsDuration("ASSESSMENT_RETENTION", 30*24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body size: %d", c.Server.MaxBodyBytes)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Engine.CatalogSource {
	case CatalogSourceFile:
		if c.Engine.CatalogFile == "" {
			return fmt.Errorf("catalog file is required when catalog source is %q", CatalogSourceFile)
		}
	case CatalogSourceDatabase:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required when catalog source is %q", CatalogSourceDatabase)
		}
	default:
		return fmt.Errorf("invalid catalog source: %q", c.Engine.CatalogSource)
	}

	if c.Engine.ScoringRulesFile == "" {
		return fmt.Errorf("scoring rules file is required")
	}
	if c.Engine.PackagePlanFile == "" {
		return fmt.Errorf("package plan file is required")
	}

	switch c.Store.Backend {
	case StoreNone, StoreMemory:
	case StorePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for the postgres store")
		}
	case StoreRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid store backend: %q", c.Store.Backend)
	}

	return nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q", s)
	}
	return level, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
