package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// pgxPool is the part of *pgxpool.Pool the repository uses
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool pgxPool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newPostgresRepository(pool), nil
}

func newPostgresRepository(pool pgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveAssessment inserts a new assessment record
func (r *PostgresRepository) SaveAssessment(ctx context.Context, a *models.Assessment) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return fmt.Errorf("invalid assessment id %q: %w", a.ID, err)
	}

	summaryJSON, err := json.Marshal(a.RiskSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal risk summary: %w", err)
	}

	packagesJSON, err := json.Marshal(a.Packages)
	if err != nil {
		return fmt.Errorf("failed to marshal packages: %w", err)
	}

	createdAt := time.Now().UTC()
	if a.CreatedAt != nil {
		createdAt = *a.CreatedAt
	}

	query := `
		INSERT INTO assessments (id, fingerprint, risk_level, risk_summary, packages, rules_version, caller, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		id,
		a.Fingerprint,
		string(a.RiskLevel),
		summaryJSON,
		packagesJSON,
		a.RulesVersion,
		a.Caller,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	return nil
}

// GetAssessment retrieves an assessment by ID
func (r *PostgresRepository) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id::text, fingerprint, risk_level, risk_summary, packages, rules_version, caller, created_at
		FROM assessments
		WHERE id = $1
	`

	var a models.Assessment
	var level string
	var createdAt time.Time
	var summaryJSON, packagesJSON []byte

	err = r.pool.QueryRow(ctx, query, parsed).Scan(
		&a.ID,
		&a.Fingerprint,
		&level,
		&summaryJSON,
		&packagesJSON,
		&a.RulesVersion,
		&a.Caller,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	a.RiskLevel = models.RiskLevel(level)
	a.CreatedAt = &createdAt

	if err := json.Unmarshal(summaryJSON, &a.RiskSummary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk summary: %w", err)
	}

	if err := json.Unmarshal(packagesJSON, &a.Packages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal packages: %w", err)
	}

	return &a, nil
}

// DeleteAssessmentsBefore removes assessments older than cutoff
func (r *PostgresRepository) DeleteAssessmentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old assessments: %w", err)
	}
	return tag.RowsAffected(), nil
}
