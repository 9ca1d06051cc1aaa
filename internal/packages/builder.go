// Package packages assembles the tiered lab-test bundles offered after scoring.
package packages

import (
	"errors"
	"fmt"
	"sort"

	"github.com/terra-clan/health-package-engine/internal/catalog"
	"github.com/terra-clan/health-package-engine/internal/models"
)

// CatalogLookupError means the plan references a code the catalog lacks.
// It is a deployment error, never a user error.
type CatalogLookupError struct {
	Tier models.TierName
	Code string
	Err  error
}

func (e *CatalogLookupError) Error() string {
	return fmt.Sprintf("catalog lookup failed for %s in tier %s: %v", e.Code, e.Tier, e.Err)
}

func (e *CatalogLookupError) Unwrap() error {
	return e.Err
}

// PricingError means a discount rule produced a final price outside (0, list]
type PricingError struct {
	Tier       models.TierName
	ListPrice  int
	Discount   int
	FinalPrice int
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("tier %s: discount %d on list price %d gives final price %d",
		e.Tier, e.Discount, e.ListPrice, e.FinalPrice)
}

// IsConfigError reports whether err comes from a misconfigured catalog or plan
func IsConfigError(err error) bool {
	var lookupErr *CatalogLookupError
	var pricingErr *PricingError
	return errors.As(err, &lookupErr) || errors.As(err, &pricingErr)
}

// Catalog is the subset of the test catalog the builder reads
type Catalog interface {
	Lookup(code string) (models.LabTest, error)
	Position(code string) (int, bool)
}

// Builder turns a risk profile into the three package tiers.
// It only reads its catalog and plan, so one Builder serves all requests.
type Builder struct {
	catalog Catalog
	plan    *Plan
}

// NewBuilder creates a builder over a catalog and a validated plan
func NewBuilder(c Catalog, plan *Plan) (*Builder, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if plan == nil {
		return nil, fmt.Errorf("package plan is required")
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid package plan: %w", err)
	}
	return &Builder{catalog: c, plan: plan}, nil
}

// Validate dry-runs a build so catalog gaps and bad discounts surface at startup
func (b *Builder) Validate() error {
	_, err := b.Build(models.NewRiskProfile(nil))
	return err
}

// PlanVersion returns the plan version label
func (b *Builder) PlanVersion() string {
	return b.plan.Version
}

// Build returns Essential, Advanced and Comprehensive in that order. Tier
// contents do not vary with risk yet; the profile is accepted so
// risk-specific add-ons can be introduced without changing callers.
func (b *Builder) Build(profile models.RiskProfile) ([]models.PackageTier, error) {
	tiers := make([]models.PackageTier, 0, len(b.plan.Tiers))
	var cumulative []models.LabTest

	for _, spec := range b.plan.Tiers {
		for _, code := range spec.Adds {
			test, err := b.catalog.Lookup(code)
			if err != nil {
				return nil, &CatalogLookupError{Tier: spec.Tier, Code: code, Err: err}
			}
			cumulative = append(cumulative, test)
		}

		tier, err := b.newTier(spec, cumulative)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	return tiers, nil
}

// newTier orders tests by catalog position and prices them
func (b *Builder) newTier(spec TierSpec, included []models.LabTest) (models.PackageTier, error) {
	ordered := make([]models.LabTest, len(included))
	copy(ordered, included)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, _ := b.catalog.Position(ordered[i].Code)
		pj, _ := b.catalog.Position(ordered[j].Code)
		return pi < pj
	})

	tests := make([]models.PackageTest, 0, len(ordered))
	listPrice := 0
	for _, t := range ordered {
		tests = append(tests, models.PackageTest{
			ID:    t.ID,
			Code:  t.Code,
			Name:  t.Name,
			Price: t.UnitPrice,
		})
		listPrice += t.UnitPrice
	}

	discount := spec.Discount.Amount(listPrice)
	finalPrice := listPrice - discount
	if discount < 0 || finalPrice <= 0 || finalPrice > listPrice {
		return models.PackageTier{}, &PricingError{
			Tier:       spec.Tier,
			ListPrice:  listPrice,
			Discount:   discount,
			FinalPrice: finalPrice,
		}
	}

	name := spec.Name
	if name == "" {
		name = string(spec.Tier) + " Package"
	}

	return models.PackageTier{
		Tier:       spec.Tier,
		Name:       name,
		Tests:      tests,
		Price:      listPrice,
		Discount:   discount,
		FinalPrice: finalPrice,
	}, nil
}

var _ Catalog = (*catalog.Catalog)(nil)
