package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/teleops-rca/internal/engine"
	"github.com/miradorstack/teleops-rca/internal/ingest"
	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/store"
)

var correlateFlags struct {
	persist     bool
	hypothesize bool
	out         string
}

var correlateCmd = &cobra.Command{
	Use:   "correlate <alerts.jsonl>",
	Short: "Group a JSONL alert file into incidents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorrelate,
}

func init() {
	f := correlateCmd.Flags()
	f.BoolVar(&correlateFlags.persist, "persist", false, "Save alerts, incidents and hypotheses to the configured store")
	f.BoolVar(&correlateFlags.hypothesize, "hypothesize", false, "Attach a baseline hypothesis to every incident")
	f.StringVarP(&correlateFlags.out, "out", "o", "", "Write the result to this file instead of stdout")
}

type correlatedIncident struct {
	Incident   models.Incident          `json:"incident"`
	Hypothesis *models.HypothesisResult `json:"hypothesis,omitempty"`
}

func runCorrelate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(os.Stderr)
	if err != nil {
		return err
	}
	alerts, err := ingest.ReadFile(args[0])
	if err != nil {
		return err
	}
	matcher, err := buildMatcher(cfg, logger)
	if err != nil {
		return err
	}

	var st *store.Store
	if correlateFlags.persist {
		if st, err = openStore(cfg, logger); err != nil {
			return err
		}
		defer st.Close()
	}
	pipeline := engine.NewPipeline(buildSelector(cfg, logger), matcher, pipelineOptions(cfg, st, logger)...)

	ctx := cmd.Context()
	incidents, err := pipeline.Correlate(ctx, alerts)
	if err != nil {
		return fmt.Errorf("correlate: %w", err)
	}

	byID := make(map[string]models.Alert, len(alerts))
	for _, a := range alerts {
		byID[a.ID] = a
	}

	results := make([]correlatedIncident, 0, len(incidents))
	for _, inc := range incidents {
		entry := correlatedIncident{Incident: inc}
		if correlateFlags.hypothesize {
			var hyp models.HypothesisResult
			if st != nil {
				if hyp, err = pipeline.Hypothesize(ctx, inc.ID); err != nil {
					return fmt.Errorf("hypothesize %s: %w", inc.ID, err)
				}
			} else {
				related := make([]models.Alert, 0, len(inc.RelatedAlertIDs))
				for _, id := range inc.RelatedAlertIDs {
					if a, ok := byID[id]; ok {
						related = append(related, a)
					}
				}
				hyp = pipeline.Match(inc.Summary, related)
			}
			entry.Hypothesis = &hyp
		}
		results = append(results, entry)
	}

	w, closeOut, err := outputWriter(correlateFlags.out)
	if err != nil {
		return err
	}
	defer closeOut()
	fmt.Fprintf(cmd.ErrOrStderr(), "%d alerts, %d incidents\n", len(alerts), len(incidents))
	return writeJSON(w, results)
}
