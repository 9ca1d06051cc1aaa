package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// InvalidInputError reports a questionnaire that is not a JSON object
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// IsInvalidInput reports whether err carries an InvalidInputError
func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

// Answers is a decoded questionnaire keyed by question id. Values are
// whatever encoding/json produced: bool, float64, string, []any or nil.
type Answers map[string]any

// ParseAnswers decodes raw questionnaire JSON. Only the outer shape is
// checked; individual answers are interpreted leniently during scoring.
func ParseAnswers(raw json.RawMessage) (Answers, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &InvalidInputError{Reason: "questionnaireData is required"}
	}
	if trimmed[0] != '{' {
		return nil, &InvalidInputError{Reason: "questionnaireData must be an object"}
	}

	var answers Answers
	if err := json.Unmarshal(trimmed, &answers); err != nil {
		return nil, &InvalidInputError{Reason: "malformed questionnaireData: " + err.Error()}
	}
	return answers, nil
}

// affirmative treats true, "yes"/"true"/"y" and non-zero numbers as yes
func affirmative(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		switch normalizeKey(val) {
		case "yes", "y", "true":
			return true
		}
	}
	return false
}

// numeric accepts JSON numbers and finite numeric strings
func numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// choices flattens an answer into the option keys it selects
func choices(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{normalizeKey(val)}
	case bool:
		return []string{strconv.FormatBool(val)}
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case []any:
		seen := make(map[string]bool, len(val))
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				continue
			}
			key := normalizeKey(s)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
		return out
	}
	return nil
}
