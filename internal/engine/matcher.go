package engine

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/miradorstack/teleops-rca/internal/models"
)

// EvidenceMatchedPatterns is the Evidence.Details key listing the winning
// rule's patterns found in the corpus, comma separated.
const EvidenceMatchedPatterns = "matched_patterns"

// DefaultAlertSampleLimit bounds how many alerts feed the search corpus.
const DefaultAlertSampleLimit = 20

// Matcher scores the rule table against incident text and emits a baseline hypothesis.
// The table can be swapped at runtime; in-flight matches finish on the table they loaded.
type Matcher struct {
	table       atomic.Pointer[RuleTable]
	clock       Clock
	sampleLimit int
	logger      *slog.Logger
}

// MatcherOption customises a Matcher.
type MatcherOption func(*Matcher)

// WithMatcherClock overrides the clock used for GeneratedAt.
func WithMatcherClock(c Clock) MatcherOption {
	return func(m *Matcher) { m.clock = c }
}

// WithAlertSampleLimit caps the number of alerts scanned per match.
func WithAlertSampleLimit(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.sampleLimit = n
		}
	}
}

// WithMatcherLogger sets the logger.
func WithMatcherLogger(l *slog.Logger) MatcherOption {
	return func(m *Matcher) { m.logger = l }
}

// NewMatcher constructs a Matcher over table, or the built-in table when nil.
func NewMatcher(table *RuleTable, opts ...MatcherOption) *Matcher {
	if table == nil {
		table = DefaultRuleTable()
	}
	m := &Matcher{
		clock:       SystemClock{},
		sampleLimit: DefaultAlertSampleLimit,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.table.Store(table)
	return m
}

// Swap atomically replaces the rule table.
func (m *Matcher) Swap(table *RuleTable) error {
	if table == nil || table.Len() == 0 {
		return errors.New("rule table is empty")
	}
	m.table.Store(table)
	m.logger.Info("rule table swapped", slog.Int("rules", table.Len()))
	return nil
}

// Table returns the rule table currently in use.
func (m *Matcher) Table() *RuleTable {
	return m.table.Load()
}

// Match picks the rule with the most pattern hits in the summary and alert
// text. Ties keep the earlier rule; with no hits the last rule wins.
func (m *Matcher) Match(summary string, alerts []models.Alert) models.HypothesisResult {
	table := m.table.Load()
	corpus := m.corpus(summary, alerts)

	best, bestHits := len(table.rules)-1, []string(nil)
	for i, rule := range table.rules {
		if hits := matchedPatterns(rule.Patterns, corpus); len(hits) > len(bestHits) {
			best, bestHits = i, hits
		}
	}
	rule := table.rules[best]
	bestCount := len(bestHits)

	var details map[string]string
	if bestCount > 0 {
		details = map[string]string{EvidenceMatchedPatterns: strings.Join(bestHits, ",")}
	}

	m.logger.Debug("baseline rule selected",
		slog.String("rule", rule.ID),
		slog.Int("match_count", bestCount))

	return models.HypothesisResult{
		IncidentSummary:  summary,
		Hypotheses:       []string{rule.Hypothesis},
		ConfidenceScores: map[string]float64{rule.Hypothesis: rule.Confidence},
		Evidence: models.Evidence{
			Alerts:     rule.Evidence,
			MatchCount: bestCount,
			RuleID:     rule.ID,
			Details:    details,
		},
		GeneratedAt: m.clock.Now(),
		Model:       models.ModelBaseline,
	}
}

func (m *Matcher) corpus(summary string, alerts []models.Alert) string {
	if len(alerts) > m.sampleLimit {
		alerts = alerts[:m.sampleLimit]
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(summary))
	for _, a := range alerts {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(a.AlertType))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(a.Message))
	}
	return b.String()
}

// matchedPatterns returns the patterns found in corpus, in rule order.
func matchedPatterns(patterns []string, corpus string) []string {
	var hits []string
	for _, p := range patterns {
		if strings.Contains(corpus, p) {
			hits = append(hits, p)
		}
	}
	return hits
}
