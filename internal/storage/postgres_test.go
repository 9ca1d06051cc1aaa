package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/health-package-engine/internal/models"
)

const testAssessmentID = "7a3e1f0c-2b4d-4e6f-8a9b-0c1d2e3f4a5b"

var assessmentColumns = []string{
	"id", "fingerprint", "risk_level", "risk_summary", "packages", "rules_version", "caller", "created_at",
}

func newMockRepository(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresRepository(mock), mock
}

func TestPostgresSaveAssessment(t *testing.T) {
	repo, mock := newMockRepository(t)

	createdAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	a := &models.Assessment{
		ID:           testAssessmentID,
		RiskSummary:  map[string]int{"cardiac": 75},
		RiskLevel:    models.RiskHigh,
		Packages:     []models.PackageTier{{Tier: models.TierEssential, Price: 800, FinalPrice: 700, Discount: 100}},
		RulesVersion: "v1",
		Fingerprint:  "abc123",
		Caller:       "anonymous",
		CreatedAt:    &createdAt,
	}

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs(uuid.MustParse(testAssessmentID), "abc123", "HIGH", pgxmock.AnyArg(), pgxmock.AnyArg(), "v1", "anonymous", createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveAssessment(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveAssessment_InvalidID(t *testing.T) {
	repo, mock := newMockRepository(t)

	err := repo.SaveAssessment(context.Background(), &models.Assessment{ID: "not-a-uuid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid assessment id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveAssessment_ExecError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO assessments`).WillReturnError(errors.New("connection reset"))

	err := repo.SaveAssessment(context.Background(), &models.Assessment{ID: testAssessmentID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save assessment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAssessment(t *testing.T) {
	repo, mock := newMockRepository(t)

	createdAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	packages := []models.PackageTier{{
		Tier:       models.TierEssential,
		Name:       "Essential Health Check",
		Tests:      []models.PackageTest{{ID: "1", Code: "CBC", Name: "Complete Blood Count", Price: 300}},
		Price:      300,
		Discount:   50,
		FinalPrice: 250,
	}}
	packagesJSON, err := json.Marshal(packages)
	require.NoError(t, err)

	rows := pgxmock.NewRows(assessmentColumns).
		AddRow(testAssessmentID, "abc123", "MODERATE", []byte(`{"cardiac":40,"liver":0}`), packagesJSON, "v1", "eyJhbGci...", createdAt)

	mock.ExpectQuery(`SELECT id::text, fingerprint`).
		WithArgs(uuid.MustParse(testAssessmentID)).
		WillReturnRows(rows)

	a, err := repo.GetAssessment(context.Background(), testAssessmentID)
	require.NoError(t, err)
	assert.Equal(t, testAssessmentID, a.ID)
	assert.Equal(t, models.RiskModerate, a.RiskLevel)
	assert.Equal(t, map[string]int{"cardiac": 40, "liver": 0}, a.RiskSummary)
	assert.Equal(t, packages, a.Packages)
	assert.Equal(t, "abc123", a.Fingerprint)
	assert.Equal(t, "eyJhbGci...", a.Caller)
	require.NotNil(t, a.CreatedAt)
	assert.True(t, createdAt.Equal(*a.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAssessment_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT id::text, fingerprint`).
		WithArgs(uuid.MustParse(testAssessmentID)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetAssessment(context.Background(), testAssessmentID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAssessment_InvalidID(t *testing.T) {
	repo, mock := newMockRepository(t)

	_, err := repo.GetAssessment(context.Background(), "unknown")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAssessment_CorruptSummary(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := pgxmock.NewRows(assessmentColumns).
		AddRow(testAssessmentID, "abc123", "LOW", []byte(`not json`), []byte(`[]`), "v1", "", time.Now())
	mock.ExpectQuery(`SELECT id::text, fingerprint`).WillReturnRows(rows)

	_, err := repo.GetAssessment(context.Background(), testAssessmentID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal risk summary")
}

func TestPostgresDeleteAssessmentsBefore(t *testing.T) {
	repo, mock := newMockRepository(t)

	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM assessments WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := repo.DeleteAssessmentsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
