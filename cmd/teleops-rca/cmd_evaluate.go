package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/teleops-rca/internal/evaluation"
)

var evaluateFlags struct {
	runs         int
	parallel     int
	modelOutputs string
	labels       string
	out          string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score baseline hypotheses against synthetic ground truth",
	Args:  cobra.NoArgs,
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.IntVar(&evaluateFlags.runs, "runs", 0, "Number of scenarios (default from config)")
	f.IntVar(&evaluateFlags.parallel, "parallel", 0, "Concurrent scenarios (default from config)")
	f.StringVar(&evaluateFlags.modelOutputs, "model-outputs", "", "JSONL of recorded model hypotheses keyed by seed")
	f.StringVar(&evaluateFlags.labels, "labels", "", "JSONL of manual labels to score as well")
	f.StringVarP(&evaluateFlags.out, "out", "o", "", "Write the report to this file instead of stdout")
}

type evaluationOutput struct {
	evaluation.Report
	Manual *evaluation.ManualReport `json:"manual,omitempty"`
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(os.Stderr)
	if err != nil {
		return err
	}
	runs, parallel := evaluateFlags.runs, evaluateFlags.parallel
	if runs <= 0 {
		runs = cfg.Evaluation.Runs
	}
	if parallel <= 0 {
		parallel = cfg.Evaluation.Parallel
	}

	matcher, err := buildMatcher(cfg, logger)
	if err != nil {
		return err
	}

	var outputs evaluation.ModelOutputs
	if evaluateFlags.modelOutputs != "" {
		if outputs, err = evaluation.LoadModelOutputs(evaluateFlags.modelOutputs); err != nil {
			return err
		}
	}

	runner := evaluation.NewRunner(matcher, evaluationOptions(cfg, parallel), logger)
	report, err := runner.Run(cmd.Context(), runs, outputs)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	result := evaluationOutput{Report: report}

	if evaluateFlags.labels != "" {
		labels, err := evaluation.LoadLabels(evaluateFlags.labels)
		if err != nil {
			return err
		}
		manual := runner.RunManual(labels)
		result.Manual = &manual
	}

	w, closeOut, err := outputWriter(evaluateFlags.out)
	if err != nil {
		return err
	}
	defer closeOut()
	return writeJSON(w, result)
}
