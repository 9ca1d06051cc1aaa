package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/health-package-engine/internal/models"
)

const assessmentKeyPrefix = "health-package:assessment:"

// RedisRepository keeps assessments as JSON values that expire after a TTL.
// Expiry replaces explicit retention, so DeleteAssessmentsBefore is a no-op.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// storedAssessment carries the fields models.Assessment hides from API responses
type storedAssessment struct {
	Assessment  *models.Assessment `json:"assessment"`
	Fingerprint string             `json:"fingerprint"`
	Caller      string             `json:"caller,omitempty"`
}

// NewRedisRepository connects to Redis and verifies the connection
func NewRedisRepository(ctx context.Context, cfg RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisRepository(client, cfg.TTL), nil
}

func newRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRepository{client: client, ttl: ttl}
}

func assessmentKey(id string) string {
	return assessmentKeyPrefix + id
}

// SaveAssessment stores the assessment under its ID with the configured TTL
func (r *RedisRepository) SaveAssessment(ctx context.Context, a *models.Assessment) error {
	data, err := json.Marshal(storedAssessment{
		Assessment:  a,
		Fingerprint: a.Fingerprint,
		Caller:      a.Caller,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	if err := r.client.Set(ctx, assessmentKey(a.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// GetAssessment loads an assessment by ID
func (r *RedisRepository) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	data, err := r.client.Get(ctx, assessmentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	var stored storedAssessment
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}
	if stored.Assessment == nil {
		return nil, fmt.Errorf("stored assessment %s is empty", id)
	}

	a := stored.Assessment
	a.Fingerprint = stored.Fingerprint
	a.Caller = stored.Caller
	return a, nil
}

// DeleteAssessmentsBefore does nothing; keys expire on their own
func (r *RedisRepository) DeleteAssessmentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// Ping verifies Redis connectivity
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
