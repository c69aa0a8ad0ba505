package evaluation

import (
	"fmt"

	"github.com/miradorstack/teleops-rca/internal/models"
)

// RecordedOutput is one replayed model-based hypothesis, keyed by scenario seed.
// A non-empty Error marks a run where the model failed to answer.
type RecordedOutput struct {
	Seed             int64              `json:"seed"`
	Hypotheses       []string           `json:"hypotheses"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Model            string             `json:"model"`
	Error            string             `json:"error,omitempty"`
}

// ModelOutputs maps scenario seeds to recorded model answers.
type ModelOutputs map[int64]models.HypothesisResult

// LoadModelOutputs reads recorded model answers from a JSONL file. Failed
// answers are skipped so their scenarios count as unattempted.
func LoadModelOutputs(path string) (ModelOutputs, error) {
	if path == "" {
		return nil, nil
	}
	records, err := readJSONL[RecordedOutput](path)
	if err != nil {
		return nil, fmt.Errorf("load model outputs: %w", err)
	}
	out := make(ModelOutputs, len(records))
	for _, rec := range records {
		if rec.Error != "" {
			continue
		}
		out[rec.Seed] = models.HypothesisResult{
			Hypotheses:       rec.Hypotheses,
			ConfidenceScores: rec.ConfidenceScores,
			Model:            rec.Model,
		}
	}
	return out, nil
}

// Lookup returns the recorded answer for seed, or nil when there is none.
func (m ModelOutputs) Lookup(seed int64) *models.HypothesisResult {
	if m == nil {
		return nil
	}
	res, ok := m[seed]
	if !ok {
		return nil
	}
	return &res
}
