package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/miradorstack/teleops-rca/internal/config"
	"github.com/miradorstack/teleops-rca/internal/engine"
	"github.com/miradorstack/teleops-rca/internal/evaluation"
	"github.com/miradorstack/teleops-rca/internal/notify"
	"github.com/miradorstack/teleops-rca/internal/store"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

// loadRuntime reads configuration and builds a logger. Batch commands log to
// stderr so stdout stays machine-readable.
func loadRuntime(logTo io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON, logTo)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func buildMatcher(cfg *config.Config, logger *slog.Logger) (*engine.Matcher, error) {
	table, err := engine.LoadRuleTable(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("rule table loaded", slog.String("path", cfg.Rules.Path), slog.Int("rules", table.Len()))
	return engine.NewMatcher(table,
		engine.WithAlertSampleLimit(cfg.Correlation.AlertSampleLimit),
		engine.WithMatcherLogger(logger),
	), nil
}

func buildSelector(cfg *config.Config, logger *slog.Logger) *engine.Selector {
	return engine.NewSelector(cfg.SelectorConfig(), engine.WithSelectorLogger(logger))
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("incident store ready", slog.String("driver", cfg.Store.Driver))
	return st, nil
}

// pipelineOptions wires the store and, when a webhook is configured, the
// Slack notifier.
func pipelineOptions(cfg *config.Config, st *store.Store, logger *slog.Logger) []engine.PipelineOption {
	opts := []engine.PipelineOption{engine.WithPipelineLogger(logger)}
	if st != nil {
		opts = append(opts, engine.WithStore(st))
	}
	if cfg.Notify.SlackWebhookURL != "" {
		opts = append(opts, engine.WithNotifier(notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL, cfg.Notify.Timeout, logger)))
	}
	return opts
}

func evaluationOptions(cfg *config.Config, parallel int) evaluation.Options {
	return evaluation.Options{
		Parallel:   parallel,
		Thresholds: cfg.Thresholds(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputWriter returns stdout when path is empty, otherwise a created file.
func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
