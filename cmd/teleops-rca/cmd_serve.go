package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/miradorstack/teleops-rca/internal/api"
	"github.com/miradorstack/teleops-rca/internal/config"
	"github.com/miradorstack/teleops-rca/internal/engine"
	"github.com/miradorstack/teleops-rca/internal/metrics"
	"github.com/miradorstack/teleops-rca/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the correlator gRPC service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(os.Stdout)
	if err != nil {
		return err
	}
	logger.Info("starting teleops-rca", slog.String("address", cfg.Server.Address), slog.String("version", version))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		return err
	}

	matcher, err := buildMatcher(cfg, logger)
	if err != nil {
		logger.Error("failed to load rule table", slog.Any("error", err))
		return err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open incident store", slog.Any("error", err))
		return err
	}
	defer st.Close()

	pipeline := engine.NewPipeline(buildSelector(cfg, logger), matcher, pipelineOptions(cfg, st, logger)...)
	service := services.NewCorrelatorService(logger, pipeline, st, services.EvaluationDefaults{
		Runs:     cfg.Evaluation.Runs,
		Parallel: cfg.Evaluation.Parallel,
		MaxRuns:  cfg.Evaluation.MaxRuns,
		Options:  evaluationOptions(cfg, cfg.Evaluation.Parallel),
	})

	server, err := api.NewServer(cfg.Server, service)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)
	go watchReload(ctx, reload, cfg, matcher, logger)

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("teleops-rca stopped")
	return nil
}

// watchReload swaps in a freshly read rule table on every SIGHUP. A pack that
// is missing, malformed or invalid leaves the active table in place.
func watchReload(ctx context.Context, sig <-chan os.Signal, cfg *config.Config, matcher *engine.Matcher, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			table, err := reloadRules(cfg.Rules.Path, matcher)
			if err != nil {
				logger.Error("rule reload failed, keeping active table", slog.String("path", cfg.Rules.Path), slog.Any("error", err))
				continue
			}
			logger.Info("rule table reloaded", slog.String("path", cfg.Rules.Path), slog.Int("rules", table.Len()))
		}
	}
}

// reloadRules reads path and swaps it into matcher. The built-in table is
// never substituted for a pack that has gone missing.
func reloadRules(path string, matcher *engine.Matcher) (*engine.RuleTable, error) {
	if path == "" {
		return nil, errors.New("no rule pack path configured")
	}
	table, err := engine.ReadRuleTable(path)
	if err != nil {
		return nil, err
	}
	if err := matcher.Swap(table); err != nil {
		return nil, err
	}
	return table, nil
}
