package models

// QualityMetrics aggregates scored hypotheses for one hypothesis source.
// Averages are nil when their subset is empty.
type QualityMetrics struct {
	Precision              float64  `json:"precision"`
	Recall                 float64  `json:"recall"`
	WrongButConfidentRate  float64  `json:"wrong_but_confident_rate"`
	WrongButConfidentCount int      `json:"wrong_but_confident_count"`
	AvgConfidenceCorrect   *float64 `json:"avg_confidence_correct"`
	AvgConfidenceIncorrect *float64 `json:"avg_confidence_incorrect"`
	TotalAttempted         int      `json:"total_attempted"`
	TotalCorrect           int      `json:"total_correct"`
	TotalConsidered        int      `json:"total_considered"`
}
