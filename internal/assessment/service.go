// Package assessment wires scoring and package building into the
// operation the API exposes, and optionally persists the results.
package assessment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/health-package-engine/internal/models"
	"github.com/terra-clan/health-package-engine/internal/packages"
	"github.com/terra-clan/health-package-engine/internal/scoring"
	"github.com/terra-clan/health-package-engine/internal/storage"
)

// Common errors
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrStorageDisabled    = errors.New("assessment storage is disabled")
)

// Scorer produces a risk profile from raw questionnaire JSON
type Scorer interface {
	Evaluate(raw json.RawMessage) (models.RiskProfile, error)
	Version() string
}

// PackageBuilder produces the tier list for a risk profile
type PackageBuilder interface {
	Build(profile models.RiskProfile) ([]models.PackageTier, error)
}

// EvaluateOptions controls one evaluation
type EvaluateOptions struct {
	Persist bool
	Caller  *models.Caller
}

// Service evaluates questionnaires. It has no per-request state, so a
// single Service handles concurrent requests.
type Service struct {
	scorer  Scorer
	builder PackageBuilder
	repo    storage.Repository
	now     func() time.Time
	newID   func() string
}

// NewService creates a Service. repo may be nil, in which case results
// are never stored.
func NewService(scorer Scorer, builder PackageBuilder, repo storage.Repository) *Service {
	return &Service{
		scorer:  scorer,
		builder: builder,
		repo:    repo,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// StorageEnabled reports whether evaluated assessments can be persisted
func (s *Service) StorageEnabled() bool {
	return s.repo != nil
}

// Evaluate scores the questionnaire and builds packages. Errors from the
// scorer and builder are returned unchanged so the caller can classify them.
func (s *Service) Evaluate(ctx context.Context, raw json.RawMessage, opts EvaluateOptions) (*models.Assessment, error) {
	profile, err := s.scorer.Evaluate(raw)
	if err != nil {
		return nil, err
	}

	tiers, err := s.builder.Build(profile)
	if err != nil {
		return nil, err
	}

	fingerprint, err := Fingerprint(raw)
	if err != nil {
		return nil, err
	}

	a := &models.Assessment{
		RiskSummary:  profile.DomainScores,
		RiskLevel:    profile.Level,
		Packages:     tiers,
		RulesVersion: s.scorer.Version(),
		Fingerprint:  fingerprint,
		Caller:       opts.Caller.Label(),
	}

	if !opts.Persist || s.repo == nil {
		return a, nil
	}

	createdAt := s.now()
	a.ID = s.newID()
	a.CreatedAt = &createdAt

	if err := s.repo.SaveAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to store assessment: %w", err)
	}

	slog.Info("assessment stored",
		"id", a.ID,
		"risk_level", a.RiskLevel,
		"rules_version", a.RulesVersion,
		"caller", a.Caller,
	)

	return a, nil
}

// Get returns a stored assessment
func (s *Service) Get(ctx context.Context, id string) (*models.Assessment, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}

	a, err := s.repo.GetAssessment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	return a, nil
}

// PruneBefore deletes stored assessments created before cutoff
func (s *Service) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.DeleteAssessmentsBefore(ctx, cutoff)
}

// Fingerprint hashes the questionnaire in canonical form (sorted keys,
// no whitespace) so equal answers hash equally regardless of formatting.
// Numbers keep their literal digits.
func Fingerprint(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", &scoring.InvalidInputError{Reason: "malformed questionnaireData: " + err.Error()}
	}

	canonical, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize questionnaire: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

var (
	_ Scorer         = (*scoring.Engine)(nil)
	_ PackageBuilder = (*packages.Builder)(nil)
)
