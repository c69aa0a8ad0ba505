package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/teleops-rca/internal/api"
	"github.com/miradorstack/teleops-rca/internal/engine"
	"github.com/miradorstack/teleops-rca/internal/evaluation"
	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/store"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

// IncidentRepository is the persistence surface the service needs beyond the pipeline's.
type IncidentRepository interface {
	LatestArtifact(ctx context.Context, incidentID, source string) (models.RCAArtifact, error)
	Counts(ctx context.Context) (store.Counts, error)
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	ListIncidents(ctx context.Context, limit int) ([]models.Incident, error)
}

// EvaluationDefaults sizes Evaluate calls that leave runs or parallel unset.
// MaxRuns caps what a caller may request.
type EvaluationDefaults struct {
	Runs     int
	Parallel int
	MaxRuns  int
	Options  evaluation.Options
}

// CorrelatorService implements the gRPC correlator service.
type CorrelatorService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	repo      IncidentRepository
	evalCfg   EvaluationDefaults
	latencies *utils.LatencyTracker
	now       func() time.Time
}

// NewCorrelatorService constructs the service facade. repo may be nil, in
// which case store-backed methods report FailedPrecondition.
func NewCorrelatorService(logger *slog.Logger, pipeline *engine.Pipeline, repo IncidentRepository, evalCfg EvaluationDefaults) *CorrelatorService {
	if logger == nil {
		logger = slog.Default()
	}
	if evalCfg.Runs <= 0 {
		evalCfg.Runs = 50
	}
	if evalCfg.Parallel <= 0 {
		evalCfg.Parallel = 1
	}
	if evalCfg.MaxRuns <= 0 || evalCfg.MaxRuns > evaluation.MaxRuns {
		evalCfg.MaxRuns = evaluation.MaxRuns
	}
	return &CorrelatorService{
		logger:    logger,
		pipeline:  pipeline,
		repo:      repo,
		evalCfg:   evalCfg,
		latencies: utils.NewLatencyTracker(1024),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Correlate groups the supplied alerts and returns the incidents opened.
func (s *CorrelatorService) Correlate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	alerts, err := api.DecodeCorrelateRequest(req, s.now())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Debug("Correlate called", slog.Int("alerts", len(alerts)))

	start := time.Now()
	incidents, err := s.pipeline.Correlate(ctx, alerts)
	if err != nil {
		s.logger.Error("correlation failed", slog.Any("error", err))
		return nil, toStatus(err, "correlation failed")
	}
	s.latencies.Observe(time.Since(start))
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("correlation latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	if incidents == nil {
		incidents = []models.Incident{}
	}
	return encode(api.CorrelateResponse{Incidents: incidents})
}

// Hypothesize matches a stored incident and records the resulting hypothesis.
func (s *CorrelatorService) Hypothesize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	incidentID, err := api.DecodeHypothesizeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.pipeline.Hypothesize(ctx, incidentID)
	if err != nil {
		s.logger.Error("hypothesis failed", slog.String("incident_id", incidentID), slog.Any("error", err))
		return nil, toStatus(err, "hypothesis failed")
	}
	return encode(result)
}

// Match runs the baseline matcher on ad-hoc input without touching the store.
func (s *CorrelatorService) Match(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	summary, alerts, err := api.DecodeMatchRequest(req, s.now())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return encode(s.pipeline.Match(summary, alerts))
}

// GetLatestRCA returns the newest stored hypothesis for an incident.
func (s *CorrelatorService) GetLatestRCA(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, status.Error(codes.FailedPrecondition, "incident store not configured")
	}
	decoded, err := api.DecodeLatestRCARequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	artifact, err := s.repo.LatestArtifact(ctx, decoded.IncidentID, decoded.Source)
	if err != nil {
		return nil, toStatus(err, "failed to load rca")
	}
	return encode(artifact)
}

// Evaluate runs a synthetic evaluation of the current rule table.
func (s *CorrelatorService) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	decoded, err := api.DecodeEvaluateRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	runs, parallel := decoded.Runs, decoded.Parallel
	if runs == 0 {
		runs = s.evalCfg.Runs
	}
	if parallel == 0 {
		parallel = s.evalCfg.Parallel
	}
	if runs > s.evalCfg.MaxRuns {
		return nil, status.Errorf(codes.InvalidArgument, "runs %d exceeds limit %d", runs, s.evalCfg.MaxRuns)
	}
	opts := s.evalCfg.Options
	opts.Parallel = parallel

	report, err := evaluation.NewRunner(s.pipeline.Matcher(), opts, s.logger).Run(ctx, runs, nil)
	if err != nil {
		return nil, toStatus(err, "evaluation failed")
	}
	return encode(report)
}

// Overview reports stored row counts and the active rule count.
func (s *CorrelatorService) Overview(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	resp := api.OverviewResponse{}
	if s.pipeline != nil {
		resp.Rules = s.pipeline.Matcher().Table().Len()
	}
	if s.repo != nil {
		counts, err := s.repo.Counts(ctx)
		if err != nil {
			return nil, toStatus(err, "failed to count records")
		}
		resp.Alerts, resp.Incidents, resp.Artifacts = counts.Alerts, counts.Incidents, counts.Artifacts
	}
	return encode(resp)
}

// ListAlerts returns stored alerts, newest first.
func (s *CorrelatorService) ListAlerts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, status.Error(codes.FailedPrecondition, "incident store not configured")
	}
	limit, err := api.DecodeListRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	alerts, err := s.repo.ListAlerts(ctx, limit)
	if err != nil {
		return nil, toStatus(err, "failed to list alerts")
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return encode(api.ListAlertsResponse{Alerts: alerts})
}

// ListIncidents returns stored incidents, newest first.
func (s *CorrelatorService) ListIncidents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, status.Error(codes.FailedPrecondition, "incident store not configured")
	}
	limit, err := api.DecodeListRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	incidents, err := s.repo.ListIncidents(ctx, limit)
	if err != nil {
		return nil, toStatus(err, "failed to list incidents")
	}
	if incidents == nil {
		incidents = []models.Incident{}
	}
	return encode(api.ListIncidentsResponse{Incidents: incidents})
}

func encode(v any) (*structpb.Struct, error) {
	out, err := api.ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error, msg string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.Is(err, engine.ErrNoStore):
		return status.Error(codes.FailedPrecondition, "incident store not configured")
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	switch utils.KindOf(err) {
	case utils.KindInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case utils.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case utils.KindConfig:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, msg)
}
