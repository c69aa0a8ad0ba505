package utils

import (
	"math"
	"sort"
)

// Percentile returns the pct-th percentile (0-100) of values using linear
// interpolation between the closest ranks. An empty sample yields 0, which
// callers must read as "no threshold". The input slice is not modified.
func Percentile(values []float64, pct float64) float64 {
	switch len(values) {
	case 0:
		return 0
	case 1:
		return values[0]
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	k := float64(len(sorted)-1) * (pct / 100)
	lo := int(math.Floor(k))
	hi := int(math.Ceil(k))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo]*(float64(hi)-k) + sorted[hi]*(k-float64(lo))
}
