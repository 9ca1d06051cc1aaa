package packages

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// Plan describes how tiers are assembled. Each tier lists only the codes
// it adds on top of the previous tier.
type Plan struct {
	Version string     `yaml:"version"`
	Tiers   []TierSpec `yaml:"tiers"`
}

// TierSpec is the configuration for one tier
type TierSpec struct {
	Tier     models.TierName `yaml:"tier"`
	Name     string          `yaml:"name"`
	Adds     []string        `yaml:"adds"`
	Discount DiscountRule    `yaml:"discount"`
}

// DiscountRule sets the markdown for a tier. Exactly one field is set:
// a flat amount, a percentage of the list price, or a target final price.
type DiscountRule struct {
	Flat    *int     `yaml:"flat,omitempty"`
	Percent *float64 `yaml:"percent,omitempty"`
	Price   *int     `yaml:"price,omitempty"`
}

// Amount returns the discount for a given list price. Percent discounts
// round half up to whole rupees.
func (d DiscountRule) Amount(listPrice int) int {
	switch {
	case d.Flat != nil:
		return *d.Flat
	case d.Percent != nil:
		return int(math.Floor(float64(listPrice)*(*d.Percent)/100 + 0.5))
	case d.Price != nil:
		return listPrice - *d.Price
	}
	return 0
}

func (d DiscountRule) validate() error {
	kinds := 0
	if d.Flat != nil {
		kinds++
		if *d.Flat < 0 {
			return fmt.Errorf("flat discount must not be negative")
		}
	}
	if d.Percent != nil {
		kinds++
		if *d.Percent < 0 || *d.Percent >= 100 {
			return fmt.Errorf("percent discount must be in [0, 100)")
		}
	}
	if d.Price != nil {
		kinds++
		if *d.Price <= 0 {
			return fmt.Errorf("target price must be positive")
		}
	}
	if kinds > 1 {
		return fmt.Errorf("only one of flat, percent or price may be set")
	}
	return nil
}

// LoadPlan loads a package plan from a YAML file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package plan: %w", err)
	}

	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("package plan loaded", "file", path, "version", plan.Version, "tiers", len(plan.Tiers))
	return plan, nil
}

// ParsePlan decodes and validates plan YAML
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse package plan YAML: %w", err)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks the plan shape without consulting a catalog
func (p *Plan) Validate() error {
	if len(p.Tiers) != len(models.TierOrder) {
		return fmt.Errorf("plan must define exactly %d tiers, got %d", len(models.TierOrder), len(p.Tiers))
	}

	seen := make(map[string]models.TierName)
	for i, spec := range p.Tiers {
		if spec.Tier != models.TierOrder[i] {
			return fmt.Errorf("tier %d must be %s, got %q", i, models.TierOrder[i], spec.Tier)
		}
		if len(spec.Adds) == 0 {
			return fmt.Errorf("tier %s must add at least one test", spec.Tier)
		}
		for _, code := range spec.Adds {
			if code == "" {
				return fmt.Errorf("tier %s has an empty test code", spec.Tier)
			}
			if prev, dup := seen[code]; dup {
				return fmt.Errorf("tier %s repeats %s already added by %s", spec.Tier, code, prev)
			}
			seen[code] = spec.Tier
		}
		if err := spec.Discount.validate(); err != nil {
			return fmt.Errorf("tier %s: %w", spec.Tier, err)
		}
	}

	return nil
}
