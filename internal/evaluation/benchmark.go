package evaluation

import (
	"runtime"
	"time"

	"github.com/miradorstack/teleops-rca/internal/utils"
)

// BenchmarkReport is the latency profile of baseline matching.
type BenchmarkReport struct {
	Runs        int                  `json:"runs"`
	GeneratedAt time.Time            `json:"generated_at"`
	GoVersion   string               `json:"go_version"`
	Platform    string               `json:"platform"`
	Baseline    utils.LatencySummary `json:"baseline"`
}

func newBenchmarkReport(runs int, timings []float64) BenchmarkReport {
	return BenchmarkReport{
		Runs:        runs,
		GeneratedAt: time.Now().UTC(),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		Baseline:    utils.SummarizeMillis(timings),
	}
}
