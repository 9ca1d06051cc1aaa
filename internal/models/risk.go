package models

// RiskLevel is the overall band derived from domain scores
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// Band boundaries are exclusive: a maximum of exactly 70 is MODERATE, exactly 30 is LOW.
const (
	HighRiskThreshold     = 70
	ModerateRiskThreshold = 30
)

// MaxDomainScore is the upper bound of every domain score
const MaxDomainScore = 100

// RiskProfile holds per-domain scores and the level derived from them.
// Build it with NewRiskProfile so Level never disagrees with DomainScores.
type RiskProfile struct {
	DomainScores map[string]int `json:"risk_summary"`
	Level        RiskLevel      `json:"risk_level"`
}

// NewRiskProfile derives the overall level from the given scores
func NewRiskProfile(scores map[string]int) RiskProfile {
	if scores == nil {
		scores = map[string]int{}
	}
	return RiskProfile{
		DomainScores: scores,
		Level:        LevelForScores(scores),
	}
}

// LevelForScores bands the maximum domain score. An empty map is LOW.
func LevelForScores(scores map[string]int) RiskLevel {
	maxScore := 0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	switch {
	case maxScore > HighRiskThreshold:
		return RiskHigh
	case maxScore > ModerateRiskThreshold:
		return RiskModerate
	default:
		return RiskLow
	}
}
