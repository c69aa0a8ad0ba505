package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/teleops-rca/internal/evaluation"
)

var benchmarkFlags struct {
	runs int
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure baseline matching latency over synthetic scenarios",
	Args:  cobra.NoArgs,
	RunE:  runBenchmark,
}

func init() {
	benchmarkCmd.Flags().IntVar(&benchmarkFlags.runs, "runs", 0, "Number of scenarios (default from config)")
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(os.Stderr)
	if err != nil {
		return err
	}
	runs := benchmarkFlags.runs
	if runs <= 0 {
		runs = cfg.Evaluation.Runs
	}
	matcher, err := buildMatcher(cfg, logger)
	if err != nil {
		return err
	}

	report, err := evaluation.NewRunner(matcher, evaluationOptions(cfg, 1), logger).Benchmark(cmd.Context(), runs)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), report)
}
