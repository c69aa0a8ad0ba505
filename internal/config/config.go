package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/teleops-rca/internal/engine"
	"github.com/miradorstack/teleops-rca/internal/evaluation"
	"github.com/miradorstack/teleops-rca/internal/quality"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

// EnvConfigPath names the variable consulted when no config path is given.
const EnvConfigPath = "TELEOPS_RCA_CONFIG"

// Config captures the settings required to boot the correlator.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Rules       RulesConfig       `yaml:"rules"`
	Correlation CorrelationConfig `yaml:"correlation"`
	Evaluation  EvaluationConfig  `yaml:"evaluation"`
	Store       StoreConfig       `yaml:"store"`
	Notify      NotifyConfig      `yaml:"notify"`
}

// ServerConfig controls gRPC listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RulesConfig points at the baseline rule pack. A missing file means the built-in table.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// CorrelationConfig tunes incident admissibility and hypothesis matching.
type CorrelationConfig struct {
	Window           time.Duration `yaml:"window"`
	MinAlerts        int           `yaml:"minAlerts"`
	AlertSampleLimit int           `yaml:"alertSampleLimit"`
	NoisePercentile  float64       `yaml:"noisePercentile"`
}

// EvaluationConfig holds quality thresholds and run sizing. MaxRuns bounds
// the runs a single Evaluate request may ask for.
type EvaluationConfig struct {
	CorrectThreshold float64 `yaml:"correctThreshold"`
	WrongSimilarity  float64 `yaml:"wrongSimilarity"`
	WrongConfidence  float64 `yaml:"wrongConfidence"`
	Parallel         int     `yaml:"parallel"`
	Runs             int     `yaml:"runs"`
	MaxRuns          int     `yaml:"maxRuns"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// NotifyConfig configures incident announcements. An empty webhook disables them.
type NotifyConfig struct {
	SlackWebhookURL string        `yaml:"slackWebhookURL"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Correlation.Window <= 0 {
		problems = append(problems, "correlation.window must be positive")
	}
	if c.Correlation.MinAlerts < 1 {
		problems = append(problems, "correlation.minAlerts must be at least 1")
	}
	if c.Correlation.AlertSampleLimit < 1 {
		problems = append(problems, "correlation.alertSampleLimit must be at least 1")
	}
	if c.Correlation.NoisePercentile <= 0 || c.Correlation.NoisePercentile >= 100 {
		problems = append(problems, "correlation.noisePercentile must be within (0,100)")
	}
	for name, v := range map[string]float64{
		"evaluation.correctThreshold": c.Evaluation.CorrectThreshold,
		"evaluation.wrongSimilarity":  c.Evaluation.WrongSimilarity,
		"evaluation.wrongConfidence":  c.Evaluation.WrongConfidence,
	} {
		if v < 0 || v > 1 {
			problems = append(problems, name+" must be within [0,1]")
		}
	}
	if c.Evaluation.Parallel < 1 {
		problems = append(problems, "evaluation.parallel must be at least 1")
	}
	if c.Evaluation.Runs < 1 {
		problems = append(problems, "evaluation.runs must be at least 1")
	}
	if c.Evaluation.MaxRuns < 1 || c.Evaluation.MaxRuns > evaluation.MaxRuns {
		problems = append(problems, fmt.Sprintf("evaluation.maxRuns must be within [1,%d]", evaluation.MaxRuns))
	} else if c.Evaluation.Runs > c.Evaluation.MaxRuns {
		problems = append(problems, "evaluation.runs must not exceed evaluation.maxRuns")
	}
	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return utils.NewAppError(utils.KindConfig, "config.Validate", strings.Join(problems, "; "), nil)
}

// SelectorConfig maps correlation settings onto the incident selector policy.
func (c *Config) SelectorConfig() engine.SelectorConfig {
	return engine.SelectorConfig{
		Window:          c.Correlation.Window,
		MinCount:        c.Correlation.MinAlerts,
		NoisePercentile: c.Correlation.NoisePercentile,
	}
}

// Thresholds maps evaluation settings onto quality thresholds.
func (c *Config) Thresholds() quality.Thresholds {
	return quality.Thresholds{
		Correct:         c.Evaluation.CorrectThreshold,
		WrongSimilarity: c.Evaluation.WrongSimilarity,
		WrongConfidence: c.Evaluation.WrongConfidence,
	}
}

func defaultConfig() Config {
	selector := engine.DefaultSelectorConfig()
	thresholds := quality.DefaultThresholds()
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Rules:   RulesConfig{Path: "configs/rules/default.yaml"},
		Correlation: CorrelationConfig{
			Window:           selector.Window,
			MinAlerts:        selector.MinCount,
			AlertSampleLimit: engine.DefaultAlertSampleLimit,
			NoisePercentile:  selector.NoisePercentile,
		},
		Evaluation: EvaluationConfig{
			CorrectThreshold: thresholds.Correct,
			WrongSimilarity:  thresholds.WrongSimilarity,
			WrongConfidence:  thresholds.WrongConfidence,
			Parallel:         1,
			Runs:             50,
			MaxRuns:          1000,
		},
		Store:  StoreConfig{Driver: "sqlite", DSN: "teleops.db"},
		Notify: NotifyConfig{Timeout: 5 * time.Second},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEOPS_RCA_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TELEOPS_RCA_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("TELEOPS_RCA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TELEOPS_RCA_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("TELEOPS_RCA_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("TELEOPS_RCA_CORRELATION_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Correlation.Window = d
		}
	}
	if v := os.Getenv("TELEOPS_RCA_MIN_ALERTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Correlation.MinAlerts = n
		}
	}
	if v := os.Getenv("TELEOPS_RCA_ALERT_SAMPLE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Correlation.AlertSampleLimit = n
		}
	}
	if v := os.Getenv("TELEOPS_RCA_EVAL_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.Parallel = n
		}
	}
	if v := os.Getenv("TELEOPS_RCA_EVAL_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.Runs = n
		}
	}
	if v := os.Getenv("TELEOPS_RCA_EVAL_MAX_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.MaxRuns = n
		}
	}
	if v := os.Getenv("TELEOPS_RCA_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("TELEOPS_RCA_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("TELEOPS_RCA_SLACK_WEBHOOK_URL"); v != "" {
		cfg.Notify.SlackWebhookURL = v
	}
	if v := os.Getenv("TELEOPS_RCA_NOTIFY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Notify.Timeout = d
		}
	}
}

