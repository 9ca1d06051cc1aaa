package models

import (
	"encoding/json"
	"time"
)

// Assessment is the result of scoring one questionnaire and building its packages
type Assessment struct {
	ID           string         `json:"assessment_id,omitempty"`
	RiskSummary  map[string]int `json:"risk_summary"`
	RiskLevel    RiskLevel      `json:"risk_level"`
	Packages     []PackageTier  `json:"packages"`
	RulesVersion string         `json:"rules_version,omitempty"`
	Fingerprint  string         `json:"-"`
	Caller       string         `json:"-"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
}

// EvaluateRequest is the body accepted by the health package endpoint
type EvaluateRequest struct {
	QuestionnaireData json.RawMessage `json:"questionnaireData"`
}

// ErrorResponse is the body returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// LiveMessage is exchanged over the live preview websocket
type LiveMessage struct {
	Type              string          `json:"type"`
	QuestionnaireData json.RawMessage `json:"questionnaireData,omitempty"`
	Data              *Assessment     `json:"data,omitempty"`
	Error             string          `json:"error,omitempty"`
}
