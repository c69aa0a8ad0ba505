package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(10)
	durations := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}
	for _, d := range durations {
		tracker.Observe(d)
	}

	if tracker.Count() != len(durations) {
		t.Fatalf("expected count %d, got %d", len(durations), tracker.Count())
	}

	if p50 := tracker.Percentile(50); p50 != 30*time.Millisecond {
		t.Fatalf("expected p50 30ms, got %v", p50)
	}
	if p95 := tracker.Percentile(95); p95 != 48*time.Millisecond {
		t.Fatalf("expected interpolated p95 48ms, got %v", p95)
	}
}

func TestLatencyTrackerBoundedSize(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 0; i < 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if tracker.Count() != 3 {
		t.Fatalf("expected tracker size 3, got %d", tracker.Count())
	}
	if min := tracker.Percentile(0); min != 7*time.Millisecond {
		t.Fatalf("expected oldest samples evicted, min=%v", min)
	}
}

func TestSummarizeMillisEmpty(t *testing.T) {
	summary := SummarizeMillis(nil)
	if summary.Count != 0 || summary.AvgMs != nil || summary.P99Ms != nil {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestSummarizeMillis(t *testing.T) {
	summary := SummarizeMillis([]float64{4, 1, 3, 2})
	if summary.Count != 4 {
		t.Fatalf("unexpected count %d", summary.Count)
	}
	if *summary.MinMs != 1 || *summary.MaxMs != 4 || *summary.AvgMs != 2.5 || *summary.P50Ms != 2.5 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
