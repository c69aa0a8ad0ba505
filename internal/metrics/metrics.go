package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels correlation runs that completed.
	OutcomeSuccess = "success"
	// OutcomeError labels runs that failed on a collaborator (store, notifier).
	OutcomeError = "error"
)

var (
	correlationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teleops_rca",
			Name:      "correlation_runs_total",
			Help:      "Total number of correlation runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	correlationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "teleops_rca",
			Name:      "correlation_seconds",
			Help:      "Correlation run latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	alertsGroupedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teleops_rca",
			Name:      "alerts_grouped_total",
			Help:      "Alerts fed through the grouper.",
		},
	)

	incidentsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teleops_rca",
			Name:      "incidents_created_total",
			Help:      "Incidents opened by the selector.",
		},
	)

	hypothesisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "teleops_rca",
			Name:      "hypothesis_seconds",
			Help:      "Baseline hypothesis latency in seconds.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	ruleSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teleops_rca",
			Name:      "rule_selections_total",
			Help:      "Baseline rule selections, partitioned by rule id.",
		},
		[]string{"rule"},
	)

	qualityPrecision = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "teleops_rca",
			Name:      "quality_precision",
			Help:      "Precision of the last evaluation run per hypothesis source.",
		},
		[]string{"source"},
	)

	qualityWrongButConfidentRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "teleops_rca",
			Name:      "quality_wrong_but_confident_rate",
			Help:      "Wrong-but-confident rate of the last evaluation run per hypothesis source.",
		},
		[]string{"source"},
	)
)

// Register attaches teleops-rca collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		correlationRunsTotal,
		correlationDurationSeconds,
		alertsGroupedTotal,
		incidentsCreatedTotal,
		hypothesisDurationSeconds,
		ruleSelectionsTotal,
		qualityPrecision,
		qualityWrongButConfidentRate,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCorrelation records one correlation run.
func ObserveCorrelation(duration time.Duration, alerts, incidents int, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	correlationRunsTotal.WithLabelValues(label).Inc()
	alertsGroupedTotal.Add(float64(alerts))
	incidentsCreatedTotal.Add(float64(incidents))
	if duration < 0 {
		duration = 0
	}
	correlationDurationSeconds.Observe(duration.Seconds())
}

// ObserveHypothesis records a baseline match and the rule it selected.
func ObserveHypothesis(duration time.Duration, ruleID string) {
	if ruleID == "" {
		ruleID = "none"
	}
	ruleSelectionsTotal.WithLabelValues(ruleID).Inc()
	if duration < 0 {
		duration = 0
	}
	hypothesisDurationSeconds.Observe(duration.Seconds())
}

// ObserveQuality publishes evaluation results for a hypothesis source.
// A source without data is removed rather than reported as zero.
func ObserveQuality(source string, precision, wrongButConfidentRate float64, ok bool) {
	if !ok {
		qualityPrecision.DeleteLabelValues(source)
		qualityWrongButConfidentRate.DeleteLabelValues(source)
		return
	}
	qualityPrecision.WithLabelValues(source).Set(precision)
	qualityWrongButConfidentRate.WithLabelValues(source).Set(wrongButConfidentRate)
}
