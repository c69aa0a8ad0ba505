package evaluation

import (
	"fmt"

	"github.com/miradorstack/teleops-rca/internal/quality"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

// Label is a manually labeled incident.
type Label struct {
	IncidentSummary string `json:"incident_summary"`
	RootCause       string `json:"root_cause"`
}

// ManualReport summarises baseline scores over manual labels.
type ManualReport struct {
	Cases  int     `json:"manual_label_cases"`
	Avg    float64 `json:"manual_label_avg"`
	Median float64 `json:"manual_label_median"`
}

// LoadLabels reads manual labels from a JSONL file.
func LoadLabels(path string) ([]Label, error) {
	labels, err := readJSONL[Label](path)
	if err != nil {
		return nil, utils.NewAppError(utils.KindInput, "evaluation.LoadLabels", fmt.Sprintf("read %s", path), err)
	}
	return labels, nil
}

// RunManual scores the baseline matcher against each label's summary alone.
func (r *Runner) RunManual(labels []Label) ManualReport {
	scores := make([]float64, 0, len(labels))
	for _, label := range labels {
		result := r.matcher.Match(label.IncidentSummary, nil)
		scores = append(scores, quality.Score(result.Hypotheses, label.RootCause, r.opts.Similarity))
	}
	return ManualReport{
		Cases:  len(labels),
		Avg:    mean(scores),
		Median: utils.Percentile(scores, 50),
	}
}
