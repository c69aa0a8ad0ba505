package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/teleops-rca/internal/metrics"
	"github.com/miradorstack/teleops-rca/internal/models"
)

// ArtifactStatusPendingReview marks a freshly generated hypothesis artifact.
const ArtifactStatusPendingReview = "pending_review"

// ErrNoStore is returned by operations that need persisted incidents when the
// pipeline was built without a store.
var ErrNoStore = errors.New("incident store not configured")

// IncidentStore persists alerts, incidents and hypothesis artifacts.
type IncidentStore interface {
	SaveAlerts(ctx context.Context, alerts []models.Alert) error
	SaveIncidents(ctx context.Context, incidents []models.Incident) error
	GetIncident(ctx context.Context, id string) (models.Incident, error)
	AlertsByIDs(ctx context.Context, ids []string) ([]models.Alert, error)
	SaveArtifact(ctx context.Context, artifact models.RCAArtifact) error
	SetRootCause(ctx context.Context, incidentID, rootCause string) error
}

// Notifier is told about every incident a correlation run opens.
type Notifier interface {
	IncidentOpened(ctx context.Context, incident models.Incident) error
}

// Pipeline wires the grouper, selector and matcher to optional persistence and notification.
type Pipeline struct {
	grouper  *Grouper
	selector *Selector
	matcher  *Matcher
	store    IncidentStore
	notifier Notifier
	logger   *slog.Logger
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

// WithStore persists correlation output.
func WithStore(store IncidentStore) PipelineOption {
	return func(p *Pipeline) { p.store = store }
}

// WithNotifier announces opened incidents.
func WithNotifier(n Notifier) PipelineOption {
	return func(p *Pipeline) { p.notifier = n }
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline constructs a correlation pipeline. Nil components fall back to defaults.
func NewPipeline(selector *Selector, matcher *Matcher, opts ...PipelineOption) *Pipeline {
	if selector == nil {
		selector = NewSelector(DefaultSelectorConfig())
	}
	if matcher == nil {
		matcher = NewMatcher(nil)
	}
	p := &Pipeline{
		grouper:  NewGrouper(),
		selector: selector,
		matcher:  matcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Matcher exposes the matcher so callers can hot-swap its rule table.
func (p *Pipeline) Matcher() *Matcher {
	return p.matcher
}

// Correlate groups alerts, selects incidents and persists both when a store
// is configured. Notification failures are logged and do not fail the run.
func (p *Pipeline) Correlate(ctx context.Context, alerts []models.Alert) ([]models.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	incidents := p.selector.Select(p.grouper.Group(alerts))

	if p.store != nil && len(alerts) > 0 {
		if err := p.store.SaveAlerts(ctx, alerts); err != nil {
			metrics.ObserveCorrelation(time.Since(start), len(alerts), 0, metrics.OutcomeError)
			return nil, fmt.Errorf("save alerts: %w", err)
		}
		if len(incidents) > 0 {
			if err := p.store.SaveIncidents(ctx, incidents); err != nil {
				metrics.ObserveCorrelation(time.Since(start), len(alerts), 0, metrics.OutcomeError)
				return nil, fmt.Errorf("save incidents: %w", err)
			}
		}
	}

	if p.notifier != nil {
		for _, incident := range incidents {
			if err := p.notifier.IncidentOpened(ctx, incident); err != nil {
				p.logger.Warn("incident notification failed",
					slog.String("incident_id", incident.ID),
					slog.Any("error", err))
			}
		}
	}

	metrics.ObserveCorrelation(time.Since(start), len(alerts), len(incidents), metrics.OutcomeSuccess)
	p.logger.Info("correlation completed",
		slog.Int("alerts", len(alerts)),
		slog.Int("incidents", len(incidents)))
	return incidents, nil
}

// Match runs the baseline matcher without touching the store.
func (p *Pipeline) Match(summary string, alerts []models.Alert) models.HypothesisResult {
	start := time.Now()
	result := p.matcher.Match(summary, alerts)
	metrics.ObserveHypothesis(time.Since(start), result.Evidence.RuleID)
	return result
}

// Hypothesize matches a stored incident, records the artifact and sets the
// incident's suspected root cause to the top hypothesis.
func (p *Pipeline) Hypothesize(ctx context.Context, incidentID string) (models.HypothesisResult, error) {
	if p.store == nil {
		return models.HypothesisResult{}, ErrNoStore
	}
	incident, err := p.store.GetIncident(ctx, incidentID)
	if err != nil {
		return models.HypothesisResult{}, fmt.Errorf("load incident %s: %w", incidentID, err)
	}
	alerts, err := p.store.AlertsByIDs(ctx, incident.RelatedAlertIDs)
	if err != nil {
		return models.HypothesisResult{}, fmt.Errorf("load alerts for %s: %w", incidentID, err)
	}

	start := time.Now()
	result := p.Match(incident.Summary, alerts)
	duration := time.Since(start)

	artifact := models.RCAArtifact{
		ID:               uuid.NewString(),
		IncidentID:       incident.ID,
		Hypotheses:       result.Hypotheses,
		ConfidenceScores: result.ConfidenceScores,
		Evidence:         result.Evidence,
		Model:            result.Model,
		Timestamp:        result.GeneratedAt,
		DurationMs:       float64(duration.Microseconds()) / 1000,
		Status:           ArtifactStatusPendingReview,
	}
	if err := p.store.SaveArtifact(ctx, artifact); err != nil {
		return models.HypothesisResult{}, fmt.Errorf("save artifact: %w", err)
	}
	if top, _ := result.TopHypothesis(); top != "" {
		if err := p.store.SetRootCause(ctx, incident.ID, top); err != nil {
			return models.HypothesisResult{}, fmt.Errorf("set root cause: %w", err)
		}
	}

	p.logger.Info("hypothesis generated",
		slog.String("incident_id", incident.ID),
		slog.String("rule", result.Evidence.RuleID),
		slog.Int("alerts", len(alerts)))
	return result, nil
}
