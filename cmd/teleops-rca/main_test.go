package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/miradorstack/teleops-rca/internal/engine"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v (stderr: %s)", args, err, stderr.String())
	}
	return stdout.String()
}

func TestGenerateThenCorrelate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TELEOPS_RCA_CONFIG", "")
	t.Setenv("TELEOPS_RCA_RULES_PATH", filepath.Join(dir, "absent.yaml"))

	alertsPath := filepath.Join(dir, "alerts.jsonl")
	truthPath := filepath.Join(dir, "truth.json")
	execute(t, "generate",
		"--type", "network_degradation",
		"--seed", "7",
		"--start", "2024-03-01T12:00:00Z",
		"--out", alertsPath,
		"--truth", truthPath)

	var truth map[string]any
	data, err := os.ReadFile(truthPath)
	if err != nil {
		t.Fatalf("read truth: %v", err)
	}
	if err := json.Unmarshal(data, &truth); err != nil {
		t.Fatalf("decode truth: %v", err)
	}
	if truth["incident_type"] != "network_degradation" {
		t.Fatalf("unexpected ground truth %v", truth)
	}

	resultPath := filepath.Join(dir, "incidents.json")
	execute(t, "correlate", alertsPath, "--hypothesize", "--out", resultPath)

	data, err = os.ReadFile(resultPath)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var results []correlatedIncident
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one incident, got %d", len(results))
	}
	if results[0].Incident.Tag != "network_degradation" {
		t.Fatalf("unexpected tag %q", results[0].Incident.Tag)
	}
	if len(results[0].Incident.RelatedAlertIDs) != 200 {
		t.Fatalf("expected 200 related alerts, got %d", len(results[0].Incident.RelatedAlertIDs))
	}
	if results[0].Hypothesis == nil || len(results[0].Hypothesis.Hypotheses) != 1 {
		t.Fatalf("expected a hypothesis, got %+v", results[0].Hypothesis)
	}
}

func TestReloadRulesKeepsActiveTableWhenPackDisappears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	pack := []byte("rules:\n  - id: power\n    patterns: [\"psu_fail\"]\n    hypothesis: power supply failure\n    confidence: 0.7\n")
	if err := os.WriteFile(path, pack, 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	matcher := engine.NewMatcher(nil)
	if _, err := reloadRules(path, matcher); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if matcher.Table().Len() != 1 {
		t.Fatalf("expected reloaded pack with 1 rule, got %d", matcher.Table().Len())
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove rules: %v", err)
	}
	if _, err := reloadRules(path, matcher); err == nil {
		t.Fatalf("expected reload of a deleted pack to fail")
	}
	if matcher.Table().Len() != 1 {
		t.Fatalf("active table replaced after failed reload, now %d rules", matcher.Table().Len())
	}
}
