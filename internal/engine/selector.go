package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

// SelectorConfig holds the admissibility policy for alert groups.
type SelectorConfig struct {
	// Window is the longest span a group may cover. Default: 15 minutes.
	Window time.Duration
	// MinCount is the smallest group that can become an incident. Default: 10.
	MinCount int
	// NoisePercentile is the percentile of surviving group sizes at or below
	// which a group is treated as background chatter. Default: 25.
	NoisePercentile float64
}

// DefaultSelectorConfig returns the production admissibility policy.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Window:          15 * time.Minute,
		MinCount:        10,
		NoisePercentile: 25,
	}
}

// Selector turns admissible alert groups into incidents.
type Selector struct {
	cfg    SelectorConfig
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
}

// SelectorOption customises a Selector.
type SelectorOption func(*Selector)

// WithSelectorClock overrides the clock used for incident ids.
func WithSelectorClock(c Clock) SelectorOption {
	return func(s *Selector) { s.clock = c }
}

// WithIDGenerator overrides incident id generation.
func WithIDGenerator(g IDGenerator) SelectorOption {
	return func(s *Selector) { s.ids = g }
}

// WithSelectorLogger sets the logger.
func WithSelectorLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// NewSelector constructs a Selector. A non-positive Window falls back to the
// default window and MinCount below 1 is raised to 1.
func NewSelector(cfg SelectorConfig, opts ...SelectorOption) *Selector {
	if cfg.Window <= 0 {
		cfg.Window = DefaultSelectorConfig().Window
	}
	if cfg.MinCount < 1 {
		cfg.MinCount = 1
	}
	if cfg.NoisePercentile <= 0 {
		cfg.NoisePercentile = DefaultSelectorConfig().NoisePercentile
	}
	s := &Selector{
		cfg:    cfg,
		clock:  SystemClock{},
		ids:    RandomSuffixIDs{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective policy.
func (s *Selector) Config() SelectorConfig {
	return s.cfg
}

// Select applies the minimum-count, noise and window filters and builds one
// incident per surviving group, ordered by tag.
func (s *Selector) Select(groups map[string]*models.AlertGroup) []models.Incident {
	if len(groups) == 0 {
		return nil
	}

	tags := make([]string, 0, len(groups))
	for tag, group := range groups {
		if group == nil || group.Count() < s.cfg.MinCount {
			continue
		}
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	counts := make([]float64, 0, len(tags))
	for _, tag := range tags {
		counts = append(counts, float64(groups[tag].Count()))
	}
	if threshold, ok := NoiseThreshold(counts, s.cfg.NoisePercentile); ok {
		kept := tags[:0]
		for _, tag := range tags {
			if float64(groups[tag].Count()) <= threshold {
				s.logger.Debug("group below noise threshold",
					slog.String("tag", tag),
					slog.Int("count", groups[tag].Count()),
					slog.Float64("threshold", threshold))
				continue
			}
			kept = append(kept, tag)
		}
		tags = kept
	}

	now := s.clock.Now()
	incidents := make([]models.Incident, 0, len(tags))
	for _, tag := range tags {
		group := groups[tag]
		if group.Span() > s.cfg.Window {
			s.logger.Debug("group spans beyond window",
				slog.String("tag", tag),
				slog.Duration("span", group.Span()),
				slog.Duration("window", s.cfg.Window))
			continue
		}
		incidents = append(incidents, s.buildIncident(group, now))
	}
	return incidents
}

func (s *Selector) buildIncident(group *models.AlertGroup, now time.Time) models.Incident {
	return models.Incident{
		ID:              s.ids.IncidentID(group.Tag, now),
		Tag:             group.Tag,
		StartTime:       group.StartTime,
		EndTime:         group.EndTime,
		Severity:        models.SeverityCritical,
		Status:          models.IncidentStatusOpen,
		RelatedAlertIDs: group.AlertIDs(),
		Summary:         IncidentSummary(group.Tag),
		ImpactScope:     "network",
		CreatedBy:       "correlator",
		TenantID:        group.Alerts[0].TenantID,
	}
}

// IncidentSummary renders the summary line attached to a correlated incident.
func IncidentSummary(tag string) string {
	return fmt.Sprintf("Correlated incident for tag: %s", tag)
}

// NoiseThreshold returns the pct-th percentile of counts. ok is false when
// fewer than two counts exist or all counts are equal; no group should then be
// discarded as noise.
func NoiseThreshold(counts []float64, pct float64) (float64, bool) {
	if len(counts) < 2 {
		return 0, false
	}
	allEqual := true
	for _, c := range counts[1:] {
		if c != counts[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return 0, false
	}
	return utils.Percentile(counts, pct), true
}
