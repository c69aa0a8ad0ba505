package engine

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/miradorstack/teleops-rca/internal/models"
)

func alertsWith(pairs ...string) []models.Alert {
	var alerts []models.Alert
	for i := 0; i+1 < len(pairs); i += 2 {
		alerts = append(alerts, models.Alert{AlertType: pairs[i], Message: pairs[i+1], Timestamp: baseTime})
	}
	return alerts
}

func mustTable(t *testing.T, rules ...models.Rule) *RuleTable {
	t.Helper()
	table, err := NewRuleTable(rules)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return table
}

func TestMatchSelectsDNSRule(t *testing.T) {
	m := NewMatcher(nil, WithMatcherClock(fixedClock()))
	result := m.Match("Correlated incident for tag: dns", alertsWith("dns_timeout", "SERVFAIL returned by resolver"))

	if result.Evidence.RuleID != "dns-outage" {
		t.Fatalf("expected dns-outage, got %s", result.Evidence.RuleID)
	}
	if result.Evidence.MatchCount != 3 {
		t.Fatalf("expected 3 pattern hits, got %d", result.Evidence.MatchCount)
	}
	if got := result.Evidence.Details[EvidenceMatchedPatterns]; got != "dns,servfail,resolver" {
		t.Fatalf("unexpected matched patterns %q", got)
	}
	if len(result.Hypotheses) != 1 {
		t.Fatalf("expected exactly one hypothesis, got %v", result.Hypotheses)
	}
	if top, conf := result.TopHypothesis(); conf != 0.6 || top == "" {
		t.Fatalf("unexpected top hypothesis %q (%v)", top, conf)
	}
	if result.Model != models.ModelBaseline {
		t.Fatalf("model = %q", result.Model)
	}
	if !result.GeneratedAt.Equal(baseTime) {
		t.Fatalf("generated at %v", result.GeneratedAt)
	}
}

func TestMatchFallsBackToLastRule(t *testing.T) {
	m := NewMatcher(nil)
	result := m.Match("quiet", alertsWith("heartbeat", "all good"))

	if result.Evidence.RuleID != "network-degradation" {
		t.Fatalf("expected generic fallback, got %s", result.Evidence.RuleID)
	}
	if result.Evidence.MatchCount != 0 {
		t.Fatalf("expected zero match count, got %d", result.Evidence.MatchCount)
	}
	if result.Evidence.Alerts == "" {
		t.Fatalf("fallback should still carry evidence text")
	}
	if result.Evidence.Details != nil {
		t.Fatalf("fallback has no matched patterns, got %v", result.Evidence.Details)
	}
}

func TestMatchTieKeepsEarlierRule(t *testing.T) {
	table := mustTable(t,
		models.Rule{ID: "first", Patterns: []string{"alpha"}, Hypothesis: "first", Confidence: 0.5},
		models.Rule{ID: "second", Patterns: []string{"alpha"}, Hypothesis: "second", Confidence: 0.9},
		models.Rule{ID: "generic", Patterns: []string{"zzz"}, Hypothesis: "generic", Confidence: 0.1},
	)
	result := NewMatcher(table).Match("ALPHA event", nil)
	if result.Evidence.RuleID != "first" {
		t.Fatalf("expected first rule on tie, got %s", result.Evidence.RuleID)
	}
}

func TestMatchPrefersHigherCount(t *testing.T) {
	table := mustTable(t,
		models.Rule{ID: "first", Patterns: []string{"alpha"}, Hypothesis: "first", Confidence: 0.5},
		models.Rule{ID: "second", Patterns: []string{"alpha", "beta"}, Hypothesis: "second", Confidence: 0.9},
		models.Rule{ID: "generic", Patterns: []string{"zzz"}, Hypothesis: "generic", Confidence: 0.1},
	)
	result := NewMatcher(table).Match("", alertsWith("alpha", "Beta"))
	if result.Evidence.RuleID != "second" || result.Evidence.MatchCount != 2 {
		t.Fatalf("expected second rule with 2 hits, got %s/%d", result.Evidence.RuleID, result.Evidence.MatchCount)
	}
	if result.ConfidenceScores["second"] != 0.9 {
		t.Fatalf("unexpected confidence map %v", result.ConfidenceScores)
	}
}

func TestMatchCapsAlertSample(t *testing.T) {
	table := mustTable(t,
		models.Rule{ID: "beta", Patterns: []string{"beta"}, Hypothesis: "beta", Confidence: 0.5},
		models.Rule{ID: "generic", Patterns: []string{"zzz"}, Hypothesis: "generic", Confidence: 0.1},
	)
	m := NewMatcher(table, WithAlertSampleLimit(1))
	result := m.Match("", alertsWith("alpha", "first", "beta", "second"))
	if result.Evidence.RuleID != "generic" {
		t.Fatalf("alerts beyond the sample limit must be ignored, got %s", result.Evidence.RuleID)
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	m := NewMatcher(nil, WithMatcherClock(fixedClock()))
	alerts := alertsWith("bgp_session_flap", "BGP peer down", "route_withdrawal", "prefixes withdrawn")

	first := m.Match("Correlated incident for tag: bgp", alerts)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, m.Match("Correlated incident for tag: bgp", alerts)); diff != "" {
			t.Fatalf("match differs on run %d:\n%s", i, diff)
		}
	}
}

func TestMatcherSwap(t *testing.T) {
	m := NewMatcher(nil)
	if err := m.Swap(nil); err == nil {
		t.Fatalf("expected error swapping in nil table")
	}

	replacement := mustTable(t, models.Rule{ID: "only", Patterns: []string{"x"}, Hypothesis: "only", Confidence: 0.3})
	if err := m.Swap(replacement); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if got := m.Match("nothing", nil).Evidence.RuleID; got != "only" {
		t.Fatalf("expected swapped table to be used, got %s", got)
	}
}

func TestMatcherConcurrentSwap(t *testing.T) {
	m := NewMatcher(nil)
	alt := mustTable(t, models.Rule{ID: "alt", Patterns: []string{"packet_loss"}, Hypothesis: "alt", Confidence: 0.2})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i == 0 {
					if j%2 == 0 {
						_ = m.Swap(alt)
					} else {
						_ = m.Swap(DefaultRuleTable())
					}
					continue
				}
				res := m.Match("packet_loss", nil)
				if res.Evidence.RuleID != "alt" && res.Evidence.RuleID != "network-degradation" {
					t.Errorf("unexpected rule %s", res.Evidence.RuleID)
				}
			}
		}(i)
	}
	wg.Wait()
}
