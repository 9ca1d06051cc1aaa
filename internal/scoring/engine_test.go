package scoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/health-package-engine/internal/models"
)

const testRules = `
version: test-1
domains:
  - name: cardiac
    rules:
      - question: smoker
        weight: 40
      - question: age
        bands:
          - {min: 40, max: 60, points: 10}
          - {min: 60, points: 35}
      - question: exercise
        options:
          Never: 20
          daily: -10
  - name: liver
    rules:
      - question: symptoms
        options:
          jaundice: 50
          fatigue: 10
      - question: alcohol
        options:
          daily: 80
  - name: hormonal
    rules: []
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	rs, err := ParseRules([]byte(testRules))
	require.NoError(t, err)
	e, err := NewEngine(rs)
	require.NoError(t, err)
	return e
}

func TestScoreIsDeterministic(t *testing.T) {
	e := newTestEngine(t)
	raw := json.RawMessage(`{"smoker": true, "age": 62, "symptoms": ["fatigue", "jaundice"], "exercise": "never"}`)

	first, err := e.Evaluate(raw)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := e.Evaluate(raw)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScoreRuleKinds(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		answers string
		want    map[string]int
	}{
		{
			name:    "empty questionnaire is neutral",
			answers: `{}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "unknown keys are ignored",
			answers: `{"favourite_colour": "blue", "shoe_size": 9}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "weight applies to yes strings",
			answers: `{"smoker": "Yes"}`,
			want:    map[string]int{"cardiac": 40, "liver": 0, "hormonal": 0},
		},
		{
			name:    "weight ignores no",
			answers: `{"smoker": false}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "band lower bound inclusive",
			answers: `{"age": 40}`,
			want:    map[string]int{"cardiac": 10, "liver": 0, "hormonal": 0},
		},
		{
			name:    "band upper bound exclusive",
			answers: `{"age": "60"}`,
			want:    map[string]int{"cardiac": 35, "liver": 0, "hormonal": 0},
		},
		{
			name:    "no band matches",
			answers: `{"age": 25}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "options are case insensitive",
			answers: `{"exercise": "  NEVER "}`,
			want:    map[string]int{"cardiac": 20, "liver": 0, "hormonal": 0},
		},
		{
			name:    "multi select sums distinct options",
			answers: `{"symptoms": ["fatigue", "jaundice", "fatigue", 7]}`,
			want:    map[string]int{"cardiac": 0, "liver": 60, "hormonal": 0},
		},
		{
			name:    "negative points floor at zero",
			answers: `{"exercise": "daily"}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "total clamps at 100",
			answers: `{"symptoms": ["jaundice"], "alcohol": "daily"}`,
			want:    map[string]int{"cardiac": 0, "liver": 100, "hormonal": 0},
		},
		{
			name:    "type mismatch is neutral",
			answers: `{"age": "unknown", "exercise": {"nested": true}, "smoker": null}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "non-finite numeric strings are neutral",
			answers: `{"age": "NaN"}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "infinite numeric strings are neutral",
			answers: `{"age": "Inf"}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
		{
			name:    "negative infinity is neutral",
			answers: `{"age": "-Infinity"}`,
			want:    map[string]int{"cardiac": 0, "liver": 0, "hormonal": 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile, err := e.Evaluate(json.RawMessage(tc.answers))
			require.NoError(t, err)
			assert.Equal(t, tc.want, profile.DomainScores)
			assert.Equal(t, models.LevelForScores(tc.want), profile.Level)
		})
	}
}

func TestOverallLevel(t *testing.T) {
	e := newTestEngine(t)

	profile, err := e.Evaluate(json.RawMessage(`{"smoker": true, "age": 65}`))
	require.NoError(t, err)
	assert.Equal(t, 75, profile.DomainScores["cardiac"])
	assert.Equal(t, models.RiskHigh, profile.Level)

	profile, err = e.Evaluate(json.RawMessage(`{"smoker": true}`))
	require.NoError(t, err)
	assert.Equal(t, models.RiskModerate, profile.Level)

	profile, err = e.Evaluate(json.RawMessage(`{"age": 45}`))
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, profile.Level)
}

func TestEvaluateRejectsMalformedInput(t *testing.T) {
	e := newTestEngine(t)

	for _, raw := range []string{``, `null`, `[]`, `"answers"`, `42`, `{"broken": `} {
		t.Run(raw, func(t *testing.T) {
			_, err := e.Evaluate(json.RawMessage(raw))
			require.Error(t, err)
			assert.True(t, IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestParseRulesValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "no domains", yaml: `version: v1`},
		{name: "unnamed domain", yaml: "domains:\n  - rules: []"},
		{name: "duplicate domain", yaml: "domains:\n  - name: a\n  - name: a"},
		{name: "missing question", yaml: "domains:\n  - name: a\n    rules:\n      - weight: 5"},
		{name: "no rule kind", yaml: "domains:\n  - name: a\n    rules:\n      - question: q"},
		{name: "two rule kinds", yaml: "domains:\n  - name: a\n    rules:\n      - question: q\n        weight: 5\n        options: {x: 1}"},
		{name: "inverted band", yaml: "domains:\n  - name: a\n    rules:\n      - question: q\n        bands:\n          - {min: 10, max: 5, points: 1}"},
		{name: "colliding options", yaml: "domains:\n  - name: a\n    rules:\n      - question: q\n        options: {Yes: 1, 'yes ': 2}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestNewEngineRequiresRules(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestEngineMetadata(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, "test-1", e.Version())
	assert.Equal(t, []string{"cardiac", "liver", "hormonal"}, e.Domains())
}

func TestDeployedRulesFile(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "scoring.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("configs directory not found, skipping")
	}

	rs, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cardiac", "metabolic", "liver", "hormonal"}, rs.DomainNames())
}
