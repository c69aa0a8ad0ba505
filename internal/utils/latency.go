package utils

import (
	"sync"
	"time"
)

// LatencyTracker keeps a bounded window of recent durations for percentile reporting.
type LatencyTracker struct {
	mu      sync.RWMutex
	samples []time.Duration
	maxSize int
}

// NewLatencyTracker creates a tracker storing up to maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &LatencyTracker{maxSize: maxSize}
}

// Observe records a new duration, evicting the oldest sample when full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples = append(l.samples, d)
	if len(l.samples) > l.maxSize {
		copy(l.samples[0:], l.samples[1:])
		l.samples = l.samples[:l.maxSize]
	}
}

// Percentile returns the interpolated percentile (0-100). Returns zero if no samples.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.samples) == 0 {
		return 0
	}
	values := make([]float64, len(l.samples))
	for i, s := range l.samples {
		values[i] = float64(s)
	}
	return time.Duration(Percentile(values, p))
}

// Count returns number of samples recorded.
func (l *LatencyTracker) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samples)
}

// LatencySummary describes a set of millisecond timings. Every statistic is nil
// when no timings were collected.
type LatencySummary struct {
	Count int      `json:"count"`
	AvgMs *float64 `json:"avg_ms"`
	MinMs *float64 `json:"min_ms"`
	P50Ms *float64 `json:"p50_ms"`
	P90Ms *float64 `json:"p90_ms"`
	P99Ms *float64 `json:"p99_ms"`
	MaxMs *float64 `json:"max_ms"`
}

// SummarizeMillis builds a LatencySummary from millisecond samples.
func SummarizeMillis(values []float64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	min, max, total := values[0], values[0], 0.0
	for _, v := range values {
		total += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	ptr := func(v float64) *float64 { return &v }
	return LatencySummary{
		Count: len(values),
		AvgMs: ptr(total / float64(len(values))),
		MinMs: ptr(min),
		P50Ms: ptr(Percentile(values, 50)),
		P90Ms: ptr(Percentile(values, 90)),
		P99Ms: ptr(Percentile(values, 99)),
		MaxMs: ptr(max),
	}
}
