package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should tolerate duplicates: %v", err)
	}
}

func TestObserveCorrelationNormalisesOutcome(t *testing.T) {
	before := testutil.ToFloat64(correlationRunsTotal.WithLabelValues(OutcomeSuccess))
	ObserveCorrelation(-time.Second, 3, 1, "weird")
	after := testutil.ToFloat64(correlationRunsTotal.WithLabelValues(OutcomeSuccess))
	if after-before != 1 {
		t.Fatalf("expected success counter to advance by 1, got %v", after-before)
	}
}

func TestObserveHypothesisLabelsRule(t *testing.T) {
	ObserveHypothesis(time.Millisecond, "")
	if got := testutil.ToFloat64(ruleSelectionsTotal.WithLabelValues("none")); got < 1 {
		t.Fatalf("expected empty rule id to be recorded as none, got %v", got)
	}
}

func TestObserveQualityRemovesNoData(t *testing.T) {
	ObserveQuality("baseline", 0.8, 0.1, true)
	if got := testutil.ToFloat64(qualityPrecision.WithLabelValues("baseline")); got != 0.8 {
		t.Fatalf("expected precision 0.8, got %v", got)
	}
	ObserveQuality("baseline", 0, 0, false)
	if n := testutil.CollectAndCount(qualityPrecision); n != 0 {
		t.Fatalf("expected no series after no-data report, got %d", n)
	}
}
