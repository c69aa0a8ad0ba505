package quality

import (
	"sort"

	"github.com/miradorstack/teleops-rca/internal/models"
)

// Thresholds decide when a scored hypothesis counts as correct or as
// wrong-but-confident.
type Thresholds struct {
	// Correct is the minimum score for a correct hypothesis.
	Correct float64
	// WrongSimilarity is the score below which a hypothesis is clearly wrong.
	WrongSimilarity float64
	// WrongConfidence is the reported confidence at which a wrong answer is dangerous.
	WrongConfidence float64
}

// DefaultThresholds returns the calibrated evaluation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Correct: 0.75, WrongSimilarity: 0.5, WrongConfidence: 0.7}
}

// Record is one incident's outcome for one hypothesis source. A nil Score
// means the source never produced a hypothesis for the incident.
type Record struct {
	Source     string
	Score      *float64
	Confidence *float64
}

// Score returns the best similarity between any hypothesis and the ground
// truth, clamped to [0,1]. A nil sim uses LexicalSimilarity.
func Score(hypotheses []string, truth string, sim Similarity) float64 {
	if sim == nil {
		sim = LexicalSimilarity
	}
	best := 0.0
	for _, h := range hypotheses {
		if s := sim(h, truth); s > best {
			best = s
		}
	}
	if best > 1 {
		best = 1
	}
	return best
}

// NewRecord scores result against truth. A nil result yields an unattempted record.
func NewRecord(source string, result *models.HypothesisResult, truth string, sim Similarity) Record {
	rec := Record{Source: source}
	if result == nil {
		return rec
	}
	score := Score(result.Hypotheses, truth, sim)
	confidence := result.MaxConfidence()
	rec.Score = &score
	rec.Confidence = &confidence
	return rec
}

// Aggregate computes quality metrics per source. Sources with no attempted
// records map to nil; empty input returns nil.
func Aggregate(records []Record, th Thresholds) map[string]*models.QualityMetrics {
	if len(records) == 0 {
		return nil
	}
	bySource := make(map[string][]Record)
	for _, r := range records {
		bySource[r.Source] = append(bySource[r.Source], r)
	}
	out := make(map[string]*models.QualityMetrics, len(bySource))
	for source, recs := range bySource {
		out[source] = AggregateSource(recs, th)
	}
	return out
}

// Sources returns the map's keys in sorted order.
func Sources(metrics map[string]*models.QualityMetrics) []string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AggregateSource computes metrics over records of a single source. It returns
// nil ("no data") when nothing was attempted.
func AggregateSource(records []Record, th Thresholds) *models.QualityMetrics {
	var (
		attempted, correct, wrongConfident int
		confCorrect, confIncorrect         []float64
	)
	for _, r := range records {
		if r.Score == nil {
			continue
		}
		attempted++
		isCorrect := *r.Score >= th.Correct
		if isCorrect {
			correct++
		}
		if r.Confidence == nil {
			continue
		}
		if isCorrect {
			confCorrect = append(confCorrect, *r.Confidence)
		} else {
			confIncorrect = append(confIncorrect, *r.Confidence)
		}
		if *r.Score < th.WrongSimilarity && *r.Confidence >= th.WrongConfidence {
			wrongConfident++
		}
	}
	if attempted == 0 {
		return nil
	}

	return &models.QualityMetrics{
		Precision:              float64(correct) / float64(attempted),
		Recall:                 float64(correct) / float64(len(records)),
		WrongButConfidentRate:  float64(wrongConfident) / float64(attempted),
		WrongButConfidentCount: wrongConfident,
		AvgConfidenceCorrect:   mean(confCorrect),
		AvgConfidenceIncorrect: mean(confIncorrect),
		TotalAttempted:         attempted,
		TotalCorrect:           correct,
		TotalConsidered:        len(records),
	}
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	avg := total / float64(len(values))
	return &avg
}
