package models

import "time"

// ModelBaseline tags hypotheses produced by the rule table rather than an external model.
const ModelBaseline = "baseline-rules"

// Rule is one entry of the baseline rule table.
type Rule struct {
	ID         string   `yaml:"id" json:"id"`
	Patterns   []string `yaml:"patterns" json:"patterns"`
	Hypothesis string   `yaml:"hypothesis" json:"hypothesis"`
	Confidence float64  `yaml:"confidence" json:"confidence"`
	Evidence   string   `yaml:"evidence" json:"evidence"`
}

// Evidence explains why a hypothesis was chosen.
type Evidence struct {
	Alerts     string            `json:"alerts,omitempty"`
	MatchCount int               `json:"match_count"`
	RuleID     string            `json:"rule_id,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// HypothesisResult is handed verbatim to hypothesis consumers.
type HypothesisResult struct {
	IncidentSummary  string             `json:"incident_summary"`
	Hypotheses       []string           `json:"hypotheses"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Evidence         Evidence           `json:"evidence"`
	GeneratedAt      time.Time          `json:"generated_at"`
	Model            string             `json:"model"`
}

// TopHypothesis returns the first hypothesis and its confidence, or "" when empty.
func (r HypothesisResult) TopHypothesis() (string, float64) {
	if len(r.Hypotheses) == 0 {
		return "", 0
	}
	return r.Hypotheses[0], r.ConfidenceScores[r.Hypotheses[0]]
}

// MaxConfidence returns the highest reported confidence, 0 if none.
func (r HypothesisResult) MaxConfidence() float64 {
	max := 0.0
	for _, c := range r.ConfidenceScores {
		if c > max {
			max = c
		}
	}
	return max
}

// RCAArtifact is a stored hypothesis attached to an incident.
type RCAArtifact struct {
	ID               string             `json:"id"`
	IncidentID       string             `json:"incident_id"`
	Hypotheses       []string           `json:"hypotheses"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Evidence         Evidence           `json:"evidence"`
	Model            string             `json:"model"`
	Timestamp        time.Time          `json:"timestamp"`
	DurationMs       float64            `json:"duration_ms"`
	Status           string             `json:"status"`
}
