package scoring

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleSet is a versioned table of per-domain scoring rules
type RuleSet struct {
	Version string   `yaml:"version"`
	Domains []Domain `yaml:"domains"`
}

// Domain is one scored risk category (cardiac, metabolic, ...)
type Domain struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Rule maps one questionnaire answer to points. Exactly one of
// Weight, Options or Bands is set.
type Rule struct {
	Question string         `yaml:"question"`
	Weight   *int           `yaml:"weight,omitempty"`  // affirmative answers
	Options  map[string]int `yaml:"options,omitempty"` // categorical answers, case-insensitive
	Bands    []Band         `yaml:"bands,omitempty"`   // numeric answers
}

// Band matches numeric answers in [Min, Max). A nil bound is open.
type Band struct {
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
	Points int      `yaml:"points"`
}

func (b Band) contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v >= *b.Max {
		return false
	}
	return true
}

// LoadRules loads a rule set from a YAML file
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring rules: %w", err)
	}

	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("scoring rules loaded", "file", path, "version", rs.Version, "domains", len(rs.Domains))
	return rs, nil
}

// ParseRules decodes and validates rule set YAML
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse scoring YAML: %w", err)
	}

	if err := rs.normalize(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// DomainNames returns the configured domains in order
func (rs *RuleSet) DomainNames() []string {
	names := make([]string, 0, len(rs.Domains))
	for _, d := range rs.Domains {
		names = append(names, d.Name)
	}
	return names
}

// normalize validates the rule set and lower-cases option keys
func (rs *RuleSet) normalize() error {
	if len(rs.Domains) == 0 {
		return fmt.Errorf("scoring rules define no domains")
	}

	seen := make(map[string]bool, len(rs.Domains))
	for di := range rs.Domains {
		d := &rs.Domains[di]
		if d.Name == "" {
			return fmt.Errorf("domain %d: name is required", di)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate domain %q", d.Name)
		}
		seen[d.Name] = true

		for ri := range d.Rules {
			if err := d.Rules[ri].normalize(); err != nil {
				return fmt.Errorf("domain %s rule %d: %w", d.Name, ri, err)
			}
		}
	}

	return nil
}

func (r *Rule) normalize() error {
	if r.Question == "" {
		return fmt.Errorf("question is required")
	}

	kinds := 0
	if r.Weight != nil {
		kinds++
	}
	if len(r.Options) > 0 {
		kinds++
	}
	if len(r.Bands) > 0 {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("question %s: exactly one of weight, options or bands is required", r.Question)
	}

	if len(r.Options) > 0 {
		opts := make(map[string]int, len(r.Options))
		for k, v := range r.Options {
			key := normalizeKey(k)
			if _, dup := opts[key]; dup {
				return fmt.Errorf("question %s: option %q defined twice", r.Question, key)
			}
			opts[key] = v
		}
		r.Options = opts
	}

	for i, b := range r.Bands {
		if b.Min != nil && b.Max != nil && *b.Min >= *b.Max {
			return fmt.Errorf("question %s: band %d has min >= max", r.Question, i)
		}
	}

	return nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
