package quality

import (
	"math"
	"testing"

	"github.com/miradorstack/teleops-rca/internal/models"
)

func f(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLexicalSimilarity(t *testing.T) {
	if got := LexicalSimilarity("Fiber cut on metro ring", "fiber-cut, on METRO ring!"); !almostEqual(got, 1) {
		t.Fatalf("identical token bags should score 1, got %v", got)
	}
	if got := LexicalSimilarity("dns outage", "bgp flap"); got != 0 {
		t.Fatalf("disjoint texts should score 0, got %v", got)
	}
	if got := LexicalSimilarity("", "anything"); got != 0 {
		t.Fatalf("empty text should score 0, got %v", got)
	}
	a, b := "ddos on edge router", "volumetric ddos targeting edge router"
	if LexicalSimilarity(a, b) != LexicalSimilarity(b, a) {
		t.Fatalf("similarity must be symmetric")
	}
}

func TestScoreTakesBestHypothesis(t *testing.T) {
	sim := func(a, b string) float64 {
		switch a {
		case "neg":
			return -0.4
		case "big":
			return 1.7
		}
		return 0.3
	}
	if got := Score([]string{"neg"}, "truth", sim); got != 0 {
		t.Fatalf("negative similarity should clamp to 0, got %v", got)
	}
	if got := Score([]string{"neg", "x", "big"}, "truth", sim); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	if got := Score(nil, "truth", nil); got != 0 {
		t.Fatalf("no hypotheses should score 0, got %v", got)
	}
}

func TestAggregateEmptyIsNoData(t *testing.T) {
	if got := Aggregate(nil, DefaultThresholds()); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := AggregateSource(nil, DefaultThresholds()); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	unattempted := []Record{{Source: "model"}, {Source: "model"}}
	if got := Aggregate(unattempted, DefaultThresholds())["model"]; got != nil {
		t.Fatalf("source without attempts should be nil, got %+v", got)
	}
}

func TestAggregateSourceMetrics(t *testing.T) {
	records := []Record{
		{Source: "baseline", Score: f(0.9), Confidence: f(0.6)},
		{Source: "baseline", Score: f(0.8), Confidence: f(0.8)},
		{Source: "baseline", Score: f(0.2), Confidence: f(0.75)},
		{Source: "baseline", Score: f(0.6), Confidence: f(0.9)},
		{Source: "baseline"},
	}
	m := AggregateSource(records, DefaultThresholds())
	if m == nil {
		t.Fatalf("expected metrics")
	}
	if m.TotalAttempted != 4 || m.TotalCorrect != 2 || m.TotalConsidered != 5 {
		t.Fatalf("unexpected totals %+v", m)
	}
	if !almostEqual(m.Precision, 0.5) || !almostEqual(m.Recall, 0.4) {
		t.Fatalf("precision/recall = %v/%v", m.Precision, m.Recall)
	}
	if m.WrongButConfidentCount != 1 || !almostEqual(m.WrongButConfidentRate, 0.25) {
		t.Fatalf("wrong-but-confident = %d/%v", m.WrongButConfidentCount, m.WrongButConfidentRate)
	}
	if m.AvgConfidenceCorrect == nil || !almostEqual(*m.AvgConfidenceCorrect, 0.7) {
		t.Fatalf("avg correct = %v", m.AvgConfidenceCorrect)
	}
	if m.AvgConfidenceIncorrect == nil || !almostEqual(*m.AvgConfidenceIncorrect, 0.825) {
		t.Fatalf("avg incorrect = %v", m.AvgConfidenceIncorrect)
	}
}

func TestWrongButConfidentZeroWhenAbsent(t *testing.T) {
	records := []Record{
		{Source: "baseline", Score: f(0.3), Confidence: f(0.69)},
		{Source: "baseline", Score: f(0.5), Confidence: f(0.95)},
		{Source: "baseline", Score: f(0.9), Confidence: f(0.9)},
	}
	m := AggregateSource(records, DefaultThresholds())
	if m.WrongButConfidentRate != 0 || m.WrongButConfidentCount != 0 {
		t.Fatalf("expected no wrong-but-confident cases, got %+v", m)
	}
	if m.AvgConfidenceIncorrect == nil {
		t.Fatalf("incorrect subset is non-empty")
	}
}

func TestAggregateAllCorrectLeavesIncorrectAverageNil(t *testing.T) {
	m := AggregateSource([]Record{{Source: "s", Score: f(1), Confidence: f(0.5)}}, DefaultThresholds())
	if m.AvgConfidenceIncorrect != nil {
		t.Fatalf("expected nil incorrect average, got %v", *m.AvgConfidenceIncorrect)
	}
}

func TestAggregateSplitsSources(t *testing.T) {
	records := []Record{
		{Source: "baseline", Score: f(0.9), Confidence: f(0.6)},
		{Source: "model", Score: f(0.1), Confidence: f(0.95)},
		{Source: "model"},
	}
	out := Aggregate(records, DefaultThresholds())
	if got := Sources(out); len(got) != 2 || got[0] != "baseline" || got[1] != "model" {
		t.Fatalf("sources = %v", got)
	}
	if out["model"].TotalConsidered != 2 || out["model"].WrongButConfidentRate != 1 {
		t.Fatalf("unexpected model metrics %+v", out["model"])
	}
}

func TestNewRecord(t *testing.T) {
	if rec := NewRecord("model", nil, "truth", nil); rec.Score != nil {
		t.Fatalf("nil result must be unattempted")
	}
	result := &models.HypothesisResult{
		Hypotheses:       []string{"fiber cut on metro ring segment"},
		ConfidenceScores: map[string]float64{"fiber cut on metro ring segment": 0.65},
	}
	rec := NewRecord("baseline", result, "Fiber cut on metro ring segment", nil)
	if rec.Score == nil || !almostEqual(*rec.Score, 1) {
		t.Fatalf("expected perfect score, got %v", rec.Score)
	}
	if rec.Confidence == nil || *rec.Confidence != 0.65 {
		t.Fatalf("unexpected confidence %v", rec.Confidence)
	}
}
