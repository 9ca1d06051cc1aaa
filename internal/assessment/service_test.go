package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/health-package-engine/internal/catalog"
	"github.com/terra-clan/health-package-engine/internal/models"
	"github.com/terra-clan/health-package-engine/internal/packages"
	"github.com/terra-clan/health-package-engine/internal/scoring"
	"github.com/terra-clan/health-package-engine/internal/storage"
)

const rulesYAML = `
version: svc-test
domains:
  - name: cardiac
    rules:
      - question: smoker
        weight: 75
  - name: metabolic
    rules:
      - question: bmi
        bands:
          - {min: 30, points: 40}
`

const planYAML = `
version: svc-test
tiers:
  - tier: Essential
    adds: [CBC, LIPID]
    discount: {flat: 100}
  - tier: Advanced
    adds: [LFT]
    discount: {percent: 10}
  - tier: Comprehensive
    adds: [VIT_D]
`

type failingRepo struct {
	storage.MemoryRepository
}

func (f *failingRepo) SaveAssessment(ctx context.Context, a *models.Assessment) error {
	return errors.New("disk full")
}

func newTestService(t *testing.T, repo storage.Repository) *Service {
	t.Helper()

	rules, err := scoring.ParseRules([]byte(rulesYAML))
	require.NoError(t, err)
	engine, err := scoring.NewEngine(rules)
	require.NoError(t, err)

	c, err := catalog.New("test", []models.LabTest{
		{Code: "CBC", ID: "1", Name: "Complete Blood Count", UnitPrice: 300},
		{Code: "LIPID", ID: "2", Name: "Lipid Profile", UnitPrice: 500},
		{Code: "LFT", ID: "3", Name: "Liver Function Test", UnitPrice: 600},
		{Code: "VIT_D", ID: "4", Name: "Vitamin D", UnitPrice: 1000},
	})
	require.NoError(t, err)

	plan, err := packages.ParsePlan([]byte(planYAML))
	require.NoError(t, err)
	builder, err := packages.NewBuilder(c, plan)
	require.NoError(t, err)

	svc := NewService(engine, builder, repo)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "7a3e1f0c-2b4d-4e6f-8a9b-0c1d2e3f4a5b" }
	return svc
}

func TestEvaluateWithoutStorage(t *testing.T) {
	svc := newTestService(t, nil)
	assert.False(t, svc.StorageEnabled())

	a, err := svc.Evaluate(context.Background(), json.RawMessage(`{"smoker": true, "bmi": 31}`), EvaluateOptions{Persist: true})
	require.NoError(t, err)

	assert.Empty(t, a.ID)
	assert.Nil(t, a.CreatedAt)
	assert.Equal(t, map[string]int{"cardiac": 75, "metabolic": 40}, a.RiskSummary)
	assert.Equal(t, models.RiskHigh, a.RiskLevel)
	assert.Equal(t, "svc-test", a.RulesVersion)
	assert.Equal(t, "anonymous", a.Caller)
	require.Len(t, a.Packages, 3)
	assert.Equal(t, 700, a.Packages[0].FinalPrice)
	assert.Equal(t, 1260, a.Packages[1].FinalPrice)
	assert.Equal(t, 2400, a.Packages[2].FinalPrice)
	assert.Len(t, a.Fingerprint, 64)
}

func TestEvaluatePersists(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := newTestService(t, repo)

	caller := &models.Caller{Token: "eyJhbGciOiJIUzI1NiJ9.payload"}
	a, err := svc.Evaluate(context.Background(), json.RawMessage(`{"bmi": 22}`), EvaluateOptions{Persist: true, Caller: caller})
	require.NoError(t, err)

	assert.Equal(t, "7a3e1f0c-2b4d-4e6f-8a9b-0c1d2e3f4a5b", a.ID)
	require.NotNil(t, a.CreatedAt)
	assert.Equal(t, "eyJhbGci...", a.Caller)
	assert.Equal(t, 1, repo.Len())

	stored, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, stored.RiskLevel)
	assert.Equal(t, a.Fingerprint, stored.Fingerprint)
}

func TestEvaluatePreviewSkipsStorage(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := newTestService(t, repo)

	a, err := svc.Evaluate(context.Background(), json.RawMessage(`{}`), EvaluateOptions{Persist: false})
	require.NoError(t, err)
	assert.Empty(t, a.ID)
	assert.Equal(t, 0, repo.Len())
}

func TestEvaluateStorageFailure(t *testing.T) {
	svc := newTestService(t, &failingRepo{})

	a, err := svc.Evaluate(context.Background(), json.RawMessage(`{}`), EvaluateOptions{Persist: true})
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "disk full")
}

func TestEvaluateInvalidInput(t *testing.T) {
	svc := newTestService(t, nil)

	for _, raw := range []string{``, `null`, `[1,2]`, `"text"`} {
		a, err := svc.Evaluate(context.Background(), json.RawMessage(raw), EvaluateOptions{})
		require.Error(t, err)
		assert.Nil(t, a)
		assert.True(t, scoring.IsInvalidInput(err), "input %q: %v", raw, err)
	}
}

func TestGet(t *testing.T) {
	_, err := newTestService(t, nil).Get(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrStorageDisabled))

	_, err = newTestService(t, storage.NewMemoryRepository()).Get(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrAssessmentNotFound))
}

func TestPruneBefore(t *testing.T) {
	n, err := newTestService(t, nil).PruneBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	repo := storage.NewMemoryRepository()
	svc := newTestService(t, repo)
	_, err = svc.Evaluate(context.Background(), json.RawMessage(`{}`), EvaluateOptions{Persist: true})
	require.NoError(t, err)

	n, err = svc.PruneBefore(context.Background(), time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFingerprintIgnoresFormatting(t *testing.T) {
	a, err := Fingerprint(json.RawMessage(`{"b": 1, "a": [true, "x"]}`))
	require.NoError(t, err)
	b, err := Fingerprint(json.RawMessage("{\n  \"a\": [true, \"x\"],\n  \"b\": 1\n}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Fingerprint(json.RawMessage(`{"a": [true, "x"], "b": 2}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestFingerprintKeepsLargeIntegers(t *testing.T) {
	a, err := Fingerprint(json.RawMessage(`{"member_id": 9007199254740993}`))
	require.NoError(t, err)
	b, err := Fingerprint(json.RawMessage(`{"member_id": 9007199254740992}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
