package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/teleops-rca/internal/utils"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Correlation.Window != 15*time.Minute || cfg.Correlation.MinAlerts != 10 || cfg.Correlation.AlertSampleLimit != 20 {
		t.Fatalf("unexpected correlation defaults %+v", cfg.Correlation)
	}
	if th := cfg.Thresholds(); th.Correct != 0.75 || th.WrongSimilarity != 0.5 || th.WrongConfidence != 0.7 {
		t.Fatalf("unexpected thresholds %+v", th)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("unexpected store driver %q", cfg.Store.Driver)
	}
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("load sample config: %v", err)
	}
	if cfg.Evaluation.Parallel != 4 || cfg.Rules.Path != "configs/rules/default.yaml" {
		t.Fatalf("unexpected sample config %+v", cfg)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":6000"
correlation:
  window: 5m
  minAlerts: 3
store:
  driver: postgres
  dsn: postgres://localhost/teleops
`)
	t.Setenv("TELEOPS_RCA_MIN_ALERTS", "4")
	t.Setenv("TELEOPS_RCA_LOG_FORMAT", "json")
	t.Setenv("TELEOPS_RCA_SLACK_WEBHOOK_URL", "https://hooks.example.com/x")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":6000" || cfg.Server.MetricsAddress != ":2112" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	sel := cfg.SelectorConfig()
	if sel.Window != 5*time.Minute || sel.MinCount != 4 {
		t.Fatalf("unexpected selector config %+v", sel)
	}
	if !cfg.Logging.JSON || cfg.Notify.SlackWebhookURL == "" || cfg.Store.Driver != "postgres" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidateMaxRuns(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Evaluation.MaxRuns != 1000 {
		t.Fatalf("unexpected default maxRuns %d", cfg.Evaluation.MaxRuns)
	}

	path := writeConfig(t, `
evaluation:
  runs: 500
  maxRuns: 100
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "maxRuns") {
		t.Fatalf("expected runs above maxRuns to be rejected, got %v", err)
	}

	path = writeConfig(t, `
evaluation:
  maxRuns: 100000000
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "maxRuns") {
		t.Fatalf("expected oversized maxRuns to be rejected, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
correlation:
  minAlerts: 0
  noisePercentile: 120
evaluation:
  correctThreshold: 1.5
store:
  driver: oracle
`)
	_, err := Load(path)
	if utils.KindOf(err) != utils.KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
	for _, want := range []string{"minAlerts", "noisePercentile", "correctThreshold", "oracle"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}
