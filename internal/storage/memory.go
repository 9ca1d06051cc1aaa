package storage

import (
	"context"
	"sync"
	"time"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// MemoryRepository keeps assessments in process memory. It backs local
// development and tests; data is lost on restart.
type MemoryRepository struct {
	mu          sync.RWMutex
	assessments map[string]*models.Assessment
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		assessments: make(map[string]*models.Assessment),
	}
}

// SaveAssessment stores a copy of the assessment
func (r *MemoryRepository) SaveAssessment(ctx context.Context, a *models.Assessment) error {
	cp := cloneAssessment(a)
	if cp.CreatedAt == nil {
		now := time.Now().UTC()
		cp.CreatedAt = &now
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments[a.ID] = cp
	return nil
}

// GetAssessment returns a copy of the stored assessment
func (r *MemoryRepository) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assessments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAssessment(a), nil
}

// DeleteAssessmentsBefore removes assessments created before cutoff
func (r *MemoryRepository) DeleteAssessmentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, a := range r.assessments {
		if a.CreatedAt != nil && a.CreatedAt.Before(cutoff) {
			delete(r.assessments, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored assessments
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assessments)
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// cloneAssessment copies a so that neither side shares maps or slices
func cloneAssessment(a *models.Assessment) *models.Assessment {
	cp := *a

	if a.RiskSummary != nil {
		cp.RiskSummary = make(map[string]int, len(a.RiskSummary))
		for k, v := range a.RiskSummary {
			cp.RiskSummary[k] = v
		}
	}

	if a.Packages != nil {
		cp.Packages = make([]models.PackageTier, len(a.Packages))
		for i, tier := range a.Packages {
			if tier.Tests != nil {
				tests := make([]models.PackageTest, len(tier.Tests))
				copy(tests, tier.Tests)
				tier.Tests = tests
			}
			cp.Packages[i] = tier
		}
	}

	if a.CreatedAt != nil {
		createdAt := *a.CreatedAt
		cp.CreatedAt = &createdAt
	}

	return &cp
}
