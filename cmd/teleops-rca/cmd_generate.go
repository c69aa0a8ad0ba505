package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/miradorstack/teleops-rca/internal/scenario"
)

var generateFlags struct {
	incidentType string
	alertRate    int
	duration     int
	noiseRate    int
	seed         int64
	start        string
	out          string
	truth        string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic alert scenario as JSONL",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	def := scenario.DefaultConfig()
	f := generateCmd.Flags()
	f.StringVar(&generateFlags.incidentType, "type", def.IncidentType,
		"Scenario type ("+strings.Join(scenario.Types(), ", ")+")")
	f.IntVar(&generateFlags.alertRate, "alert-rate", def.AlertRatePerMin, "Incident alerts per minute")
	f.IntVar(&generateFlags.duration, "duration", def.DurationMin, "Scenario length in minutes")
	f.IntVar(&generateFlags.noiseRate, "noise-rate", def.NoiseRatePerMin, "Noise alerts per minute")
	f.Int64Var(&generateFlags.seed, "seed", def.Seed, "Random seed")
	f.StringVar(&generateFlags.start, "start", "", "Scenario start time (RFC3339, default now)")
	f.StringVarP(&generateFlags.out, "out", "o", "", "Write alerts to this file instead of stdout")
	f.StringVar(&generateFlags.truth, "truth", "", "Write the ground truth as JSON to this file")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg := scenario.Config{
		IncidentType:    generateFlags.incidentType,
		AlertRatePerMin: generateFlags.alertRate,
		DurationMin:     generateFlags.duration,
		NoiseRatePerMin: generateFlags.noiseRate,
		Seed:            generateFlags.seed,
	}
	if generateFlags.start != "" {
		start, err := time.Parse(time.RFC3339, generateFlags.start)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		cfg.Start = start.UTC()
	}

	sc, err := scenario.Generate(cfg)
	if err != nil {
		return err
	}

	w, closeOut, err := outputWriter(generateFlags.out)
	if err != nil {
		return err
	}
	defer closeOut()
	enc := json.NewEncoder(w)
	for _, alert := range sc.Alerts {
		if err := enc.Encode(alert); err != nil {
			return fmt.Errorf("write alert: %w", err)
		}
	}

	if generateFlags.truth != "" {
		data, err := json.MarshalIndent(sc.GroundTruth, "", "  ")
		if err != nil {
			return fmt.Errorf("encode ground truth: %w", err)
		}
		if err := os.WriteFile(generateFlags.truth, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write ground truth: %w", err)
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "generated %d alerts for %s (seed %d)\n", len(sc.Alerts), sc.GroundTruth.IncidentType, cfg.Seed)
	return nil
}
