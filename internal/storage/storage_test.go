package storage

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/health-package-engine/internal/models"
	"github.com/terra-clan/health-package-engine/migrations"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.SaveAssessment(ctx, &models.Assessment{ID: "a-old", RiskLevel: models.RiskLow, CreatedAt: &old}))
	require.NoError(t, repo.SaveAssessment(ctx, &models.Assessment{ID: "a-new", RiskLevel: models.RiskHigh}))
	assert.Equal(t, 2, repo.Len())

	got, err := repo.GetAssessment(ctx, "a-new")
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, got.RiskLevel)
	assert.NotNil(t, got.CreatedAt)

	_, err = repo.GetAssessment(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	deleted, err := repo.DeleteAssessmentsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 1, repo.Len())

	_, err = repo.GetAssessment(ctx, "a-old")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisRepositoryDefaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	repo := newRedisRepository(client, 0)
	assert.Equal(t, 24*time.Hour, repo.ttl)
	assert.Equal(t, "health-package:assessment:abc", assessmentKey("abc"))

	deleted, err := repo.DeleteAssessmentsBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestListMigrationsSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 1")},
		"001_first.sql":  {Data: []byte("SELECT 1")},
		"README.md":      {Data: []byte("docs")},
		"nested/003.sql": {Data: []byte("SELECT 1")},
	}

	names, err := listMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_first.sql", "010_later.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := listMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_assessments.sql", "002_lab_tests.sql"}, names)
	assert.Equal(t, migrations.FS, MigrationsFS(""))
}

func TestMemoryRepositoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a := &models.Assessment{
		ID:          "a-1",
		RiskSummary: map[string]int{"cardiac": 40},
		Packages: []models.PackageTier{{
			Tier:  models.TierEssential,
			Tests: []models.PackageTest{{Code: "CBC", Price: 300}},
		}},
	}
	require.NoError(t, repo.SaveAssessment(ctx, a))

	a.RiskSummary["cardiac"] = 99
	a.Packages[0].Tests[0].Price = 1
	a.Packages[0].FinalPrice = 1

	got, err := repo.GetAssessment(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, 40, got.RiskSummary["cardiac"])
	assert.Equal(t, 300, got.Packages[0].Tests[0].Price)
	assert.Zero(t, got.Packages[0].FinalPrice)

	got.RiskSummary["cardiac"] = 7
	got.Packages[0].Tests[0].Code = "LIPID"

	again, err := repo.GetAssessment(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, 40, again.RiskSummary["cardiac"])
	assert.Equal(t, "CBC", again.Packages[0].Tests[0].Code)
}
