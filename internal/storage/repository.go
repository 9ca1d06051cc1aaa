package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// ErrNotFound is returned when no stored assessment matches an id
var ErrNotFound = errors.New("assessment not found")

// Repository defines the interface for assessment persistence
type Repository interface {
	SaveAssessment(ctx context.Context, a *models.Assessment) error
	GetAssessment(ctx context.Context, id string) (*models.Assessment, error)

	// DeleteAssessmentsBefore removes assessments created before cutoff
	// and reports how many were removed
	DeleteAssessmentsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
