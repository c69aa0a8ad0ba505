package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/teleops-rca/internal/engine"
	"github.com/miradorstack/teleops-rca/internal/metrics"
	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/quality"
	"github.com/miradorstack/teleops-rca/internal/scenario"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

const (
	// SourceBaseline labels rule-table hypotheses.
	SourceBaseline = "baseline"
	// SourceModel labels replayed model-based hypotheses.
	SourceModel = "model"

	scoringMethod = "lexical_cosine_similarity"
)

// Options tune an evaluation run.
type Options struct {
	Parallel   int
	Thresholds quality.Thresholds
	Similarity quality.Similarity
	// Scenario supplies rates for generated scenarios; type and seed are set per run.
	Scenario scenario.Config
}

// ScenarioResult is the scored outcome of one synthetic run.
type ScenarioResult struct {
	ScenarioType       string   `json:"scenario_type"`
	Seed               int64    `json:"seed"`
	GroundTruth        string   `json:"ground_truth"`
	BaselineHypothesis string   `json:"baseline_hypothesis"`
	BaselineRule       string   `json:"baseline_rule"`
	BaselineScore      float64  `json:"baseline_score"`
	BaselineConfidence float64  `json:"baseline_confidence"`
	ModelHypothesis    *string  `json:"model_hypothesis"`
	ModelScore         *float64 `json:"model_score"`
	ModelConfidence    *float64 `json:"model_confidence"`
}

// ThresholdReport echoes the thresholds a report was scored with.
type ThresholdReport struct {
	Correct                  float64 `json:"correct"`
	WrongConfidentSimilarity float64 `json:"wrong_confident_similarity"`
	WrongConfidentConfidence float64 `json:"wrong_confident_confidence"`
}

// Report summarises a synthetic evaluation.
type Report struct {
	Runs           int                               `json:"runs"`
	BaselineAvg    float64                           `json:"baseline_avg"`
	BaselineMedian float64                           `json:"baseline_median"`
	ModelAvg       *float64                          `json:"model_avg"`
	ModelMedian    *float64                          `json:"model_median"`
	ScoringMethod  string                            `json:"scoring_method"`
	Thresholds     ThresholdReport                   `json:"thresholds"`
	QualityMetrics map[string]*models.QualityMetrics `json:"quality_metrics"`
	PerScenario    []ScenarioResult                  `json:"per_scenario"`
}

// Runner scores the baseline matcher, and optionally recorded model answers,
// against generated scenarios.
type Runner struct {
	matcher *engine.Matcher
	opts    Options
	logger  *slog.Logger
}

// NewRunner constructs a Runner. A nil matcher uses the built-in rule table.
func NewRunner(matcher *engine.Matcher, opts Options, logger *slog.Logger) *Runner {
	if matcher == nil {
		matcher = engine.NewMatcher(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Thresholds == (quality.Thresholds{}) {
		opts.Thresholds = quality.DefaultThresholds()
	}
	if opts.Similarity == nil {
		opts.Similarity = quality.LexicalSimilarity
	}
	if opts.Scenario.AlertRatePerMin == 0 && opts.Scenario.DurationMin == 0 {
		opts.Scenario = scenario.DefaultConfig()
	}
	return &Runner{matcher: matcher, opts: opts, logger: logger}
}

// MaxRuns is the largest run count Run and Benchmark accept.
const MaxRuns = 10000

func checkRuns(op string, runs int) error {
	if runs <= 0 {
		return utils.NewAppError(utils.KindInput, op, "runs must be positive", nil)
	}
	if runs > MaxRuns {
		return utils.NewAppError(utils.KindInput, op, fmt.Sprintf("runs %d exceeds limit %d", runs, MaxRuns), nil)
	}
	return nil
}

// Run evaluates seeds 0..runs-1, cycling through scenario types. Results are
// ordered by seed regardless of parallelism.
func (r *Runner) Run(ctx context.Context, runs int, outputs ModelOutputs) (Report, error) {
	if err := checkRuns("evaluation.Run", runs); err != nil {
		return Report{}, err
	}
	types := scenario.Types()
	results := make([]ScenarioResult, runs)

	runOne := func(ctx context.Context, seed int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.evaluateSeed(int64(seed), types[seed%len(types)], outputs)
		if err != nil {
			return err
		}
		results[seed] = res
		return nil
	}

	if r.opts.Parallel > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Parallel)
		for seed := 0; seed < runs; seed++ {
			g.Go(func() error { return runOne(gCtx, seed) })
		}
		if err := g.Wait(); err != nil {
			return Report{}, err
		}
	} else {
		for seed := 0; seed < runs; seed++ {
			if err := runOne(ctx, seed); err != nil {
				return Report{}, err
			}
		}
	}

	report := r.buildReport(results)
	for _, source := range []string{SourceBaseline, SourceModel} {
		m := report.QualityMetrics[source]
		if m == nil {
			metrics.ObserveQuality(source, 0, 0, false)
			continue
		}
		metrics.ObserveQuality(source, m.Precision, m.WrongButConfidentRate, true)
	}
	r.logger.Info("evaluation completed",
		slog.Int("runs", runs),
		slog.Float64("baseline_avg", report.BaselineAvg))
	return report, nil
}

func (r *Runner) evaluateSeed(seed int64, incidentType string, outputs ModelOutputs) (ScenarioResult, error) {
	cfg := r.opts.Scenario
	cfg.IncidentType = incidentType
	cfg.Seed = seed
	sc, err := scenario.Generate(cfg)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("seed %d: %w", seed, err)
	}

	summary := engine.IncidentSummary(sc.GroundTruth.IncidentType)
	baseline := r.matcher.Match(summary, sc.IncidentAlerts())
	hypothesis, confidence := baseline.TopHypothesis()

	res := ScenarioResult{
		ScenarioType:       incidentType,
		Seed:               seed,
		GroundTruth:        sc.GroundTruth.RootCause,
		BaselineHypothesis: hypothesis,
		BaselineRule:       baseline.Evidence.RuleID,
		BaselineScore:      quality.Score(baseline.Hypotheses, sc.GroundTruth.RootCause, r.opts.Similarity),
		BaselineConfidence: confidence,
	}

	if recorded := outputs.Lookup(seed); recorded != nil {
		score := quality.Score(recorded.Hypotheses, sc.GroundTruth.RootCause, r.opts.Similarity)
		conf := recorded.MaxConfidence()
		res.ModelScore = &score
		res.ModelConfidence = &conf
		if top, _ := recorded.TopHypothesis(); top != "" {
			res.ModelHypothesis = &top
		}
	}
	return res, nil
}

func (r *Runner) buildReport(results []ScenarioResult) Report {
	records := make([]quality.Record, 0, 2*len(results))
	baselineScores := make([]float64, 0, len(results))
	var modelScores []float64

	for _, res := range results {
		score, conf := res.BaselineScore, res.BaselineConfidence
		baselineScores = append(baselineScores, score)
		records = append(records, quality.Record{Source: SourceBaseline, Score: &score, Confidence: &conf})

		records = append(records, quality.Record{Source: SourceModel, Score: res.ModelScore, Confidence: res.ModelConfidence})
		if res.ModelScore != nil {
			modelScores = append(modelScores, *res.ModelScore)
		}
	}

	report := Report{
		Runs:           len(results),
		BaselineAvg:    mean(baselineScores),
		BaselineMedian: utils.Percentile(baselineScores, 50),
		ScoringMethod:  scoringMethod,
		Thresholds: ThresholdReport{
			Correct:                  r.opts.Thresholds.Correct,
			WrongConfidentSimilarity: r.opts.Thresholds.WrongSimilarity,
			WrongConfidentConfidence: r.opts.Thresholds.WrongConfidence,
		},
		QualityMetrics: quality.Aggregate(records, r.opts.Thresholds),
		PerScenario:    results,
	}
	if len(modelScores) > 0 {
		avg, median := mean(modelScores), utils.Percentile(modelScores, 50)
		report.ModelAvg = &avg
		report.ModelMedian = &median
	}
	return report
}

// Benchmark times baseline matching over runs generated scenarios.
func (r *Runner) Benchmark(ctx context.Context, runs int) (BenchmarkReport, error) {
	if err := checkRuns("evaluation.Benchmark", runs); err != nil {
		return BenchmarkReport{}, err
	}
	types := scenario.Types()
	timings := make([]float64, 0, runs)
	for seed := 0; seed < runs; seed++ {
		if err := ctx.Err(); err != nil {
			return BenchmarkReport{}, err
		}
		cfg := r.opts.Scenario
		cfg.IncidentType = types[seed%len(types)]
		cfg.Seed = int64(seed)
		sc, err := scenario.Generate(cfg)
		if err != nil {
			return BenchmarkReport{}, err
		}
		summary := engine.IncidentSummary(sc.GroundTruth.IncidentType)
		alerts := sc.IncidentAlerts()

		start := time.Now()
		r.matcher.Match(summary, alerts)
		timings = append(timings, float64(time.Since(start).Nanoseconds())/1e6)
	}
	return newBenchmarkReport(runs, timings), nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
