// Package scoring turns questionnaire answers into per-domain risk scores
// using a versioned rule table.
package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// Engine scores questionnaires against a fixed rule set. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	rules *RuleSet
}

// NewEngine creates an engine over an already validated rule set
func NewEngine(rules *RuleSet) (*Engine, error) {
	if rules == nil {
		return nil, fmt.Errorf("scoring rules are required")
	}
	if err := rules.normalize(); err != nil {
		return nil, err
	}
	return &Engine{rules: rules}, nil
}

// Version returns the rule table version
func (e *Engine) Version() string {
	return e.rules.Version
}

// Domains returns the scored domain names in configuration order
func (e *Engine) Domains() []string {
	return e.rules.DomainNames()
}

// Evaluate parses raw questionnaire JSON and scores it
func (e *Engine) Evaluate(raw json.RawMessage) (models.RiskProfile, error) {
	answers, err := ParseAnswers(raw)
	if err != nil {
		return models.RiskProfile{}, err
	}
	return e.Score(answers), nil
}

// Score computes every configured domain. Unknown or missing answers
// contribute nothing.
func (e *Engine) Score(answers Answers) models.RiskProfile {
	scores := make(map[string]int, len(e.rules.Domains))
	for _, d := range e.rules.Domains {
		scores[d.Name] = scoreDomain(d, answers)
	}
	return models.NewRiskProfile(scores)
}

func scoreDomain(d Domain, answers Answers) int {
	total := 0
	for _, r := range d.Rules {
		v, ok := answers[r.Question]
		if !ok || v == nil {
			continue
		}
		total += r.points(v)
	}
	return clamp(total)
}

func (r Rule) points(v any) int {
	switch {
	case r.Weight != nil:
		if affirmative(v) {
			return *r.Weight
		}
		return 0

	case len(r.Options) > 0:
		sum := 0
		for _, c := range choices(v) {
			sum += r.Options[c]
		}
		return sum

	case len(r.Bands) > 0:
		n, ok := numeric(v)
		if !ok {
			return 0
		}
		for _, b := range r.Bands {
			if b.contains(n) {
				return b.Points
			}
		}
	}
	return 0
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > models.MaxDomainScore {
		return models.MaxDomainScore
	}
	return score
}
