package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/teleops-rca/internal/engine"
	"github.com/miradorstack/teleops-rca/internal/store"
)

func newStoreBackedService(t *testing.T) *CorrelatorService {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, ":memory:", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	pipeline := engine.NewPipeline(nil, nil, engine.WithStore(st))
	return NewCorrelatorService(nil, pipeline, st, EvaluationDefaults{Runs: 3})
}

func alertPayload(tag, alertType string, n int) []any {
	start := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			"id":         fmt.Sprintf("%s-%d", tag, i),
			"timestamp":  start.Add(time.Duration(i) * 10 * time.Second).Format(time.RFC3339),
			"alert_type": alertType,
			"message":    "optical link failure",
			"tags":       map[string]any{"incident": tag},
		})
	}
	return out
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	return s
}

func TestCorrelateHypothesizeFlow(t *testing.T) {
	svc := newStoreBackedService(t)
	ctx := context.Background()

	out, err := svc.Correlate(ctx, mustStruct(t, map[string]any{"alerts": alertPayload("fiber", "link_down", 12)}))
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	incidents := out.GetFields()["incidents"].GetListValue().GetValues()
	if len(incidents) != 1 {
		t.Fatalf("expected one incident, got %d", len(incidents))
	}
	incidentID := incidents[0].GetStructValue().GetFields()["id"].GetStringValue()

	hyp, err := svc.Hypothesize(ctx, mustStruct(t, map[string]any{"incident_id": incidentID}))
	if err != nil {
		t.Fatalf("hypothesize: %v", err)
	}
	if rule := hyp.GetFields()["evidence"].GetStructValue().GetFields()["rule_id"].GetStringValue(); rule != "fiber-cut" {
		t.Fatalf("expected fiber-cut, got %q", rule)
	}

	latest, err := svc.GetLatestRCA(ctx, mustStruct(t, map[string]any{"incident_id": incidentID, "source": "baseline"}))
	if err != nil {
		t.Fatalf("latest rca: %v", err)
	}
	if latest.GetFields()["incident_id"].GetStringValue() != incidentID {
		t.Fatalf("unexpected artifact %v", latest)
	}

	overview, err := svc.Overview(ctx, nil)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	fields := overview.GetFields()
	if fields["alerts"].GetNumberValue() != 12 || fields["incidents"].GetNumberValue() != 1 ||
		fields["rca_artifacts"].GetNumberValue() != 1 || fields["rules"].GetNumberValue() != 11 {
		t.Fatalf("unexpected overview %v", overview)
	}
}

func TestStatusMapping(t *testing.T) {
	svc := newStoreBackedService(t)
	ctx := context.Background()

	if _, err := svc.Hypothesize(ctx, mustStruct(t, map[string]any{})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := svc.Hypothesize(ctx, mustStruct(t, map[string]any{"incident_id": "ghost"})); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := svc.GetLatestRCA(ctx, mustStruct(t, map[string]any{"incident_id": "ghost"})); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	bad := mustStruct(t, map[string]any{"alerts": []any{map[string]any{"timestamp": "later"}}})
	if _, err := svc.Correlate(ctx, bad); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestServiceWithoutStore(t *testing.T) {
	svc := NewCorrelatorService(nil, engine.NewPipeline(nil, nil), nil, EvaluationDefaults{})
	ctx := context.Background()

	if _, err := svc.GetLatestRCA(ctx, mustStruct(t, map[string]any{"incident_id": "x"})); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
	if _, err := svc.Hypothesize(ctx, mustStruct(t, map[string]any{"incident_id": "x"})); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}

	out, err := svc.Match(ctx, mustStruct(t, map[string]any{"summary": "SERVFAIL from resolver"}))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if out.GetFields()["model"].GetStringValue() != "baseline-rules" {
		t.Fatalf("unexpected match output %v", out)
	}
}

func TestEvaluate(t *testing.T) {
	svc := newStoreBackedService(t)
	out, err := svc.Evaluate(context.Background(), mustStruct(t, map[string]any{"runs": 2}))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out.GetFields()["runs"].GetNumberValue() != 2 {
		t.Fatalf("unexpected report %v", out)
	}
	if out.GetFields()["quality_metrics"].GetStructValue().GetFields()["baseline"].GetStructValue() == nil {
		t.Fatalf("expected baseline metrics in %v", out)
	}
}

func TestEvaluateRejectsOversizedRuns(t *testing.T) {
	pipeline := engine.NewPipeline(nil, nil)
	capped := NewCorrelatorService(nil, pipeline, nil, EvaluationDefaults{Runs: 2, MaxRuns: 5})
	uncapped := NewCorrelatorService(nil, pipeline, nil, EvaluationDefaults{})
	ctx := context.Background()

	if _, err := capped.Evaluate(ctx, mustStruct(t, map[string]any{"runs": 6})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument above the configured cap, got %v", err)
	}
	for _, svc := range []*CorrelatorService{capped, uncapped} {
		if _, err := svc.Evaluate(ctx, mustStruct(t, map[string]any{"runs": 1e17})); status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument for a huge run count, got %v", err)
		}
	}
}

func TestListAlertsAndIncidents(t *testing.T) {
	svc := newStoreBackedService(t)
	ctx := context.Background()
	if _, err := svc.Correlate(ctx, mustStruct(t, map[string]any{"alerts": alertPayload("fiber", "link_down", 12)})); err != nil {
		t.Fatalf("correlate: %v", err)
	}

	alerts, err := svc.ListAlerts(ctx, mustStruct(t, map[string]any{"limit": 5}))
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if n := len(alerts.GetFields()["alerts"].GetListValue().GetValues()); n != 5 {
		t.Fatalf("expected 5 alerts, got %d", n)
	}

	incidents, err := svc.ListIncidents(ctx, nil)
	if err != nil {
		t.Fatalf("list incidents: %v", err)
	}
	listed := incidents.GetFields()["incidents"].GetListValue().GetValues()
	if len(listed) != 1 || listed[0].GetStructValue().GetFields()["tag"].GetStringValue() != "fiber" {
		t.Fatalf("unexpected incidents %v", incidents)
	}

	if _, err := svc.ListAlerts(ctx, mustStruct(t, map[string]any{"limit": -1})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for negative limit, got %v", err)
	}
	bare := NewCorrelatorService(nil, engine.NewPipeline(nil, nil), nil, EvaluationDefaults{})
	if _, err := bare.ListIncidents(ctx, nil); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition without a store, got %v", err)
	}
}

func TestNilPipeline(t *testing.T) {
	svc := NewCorrelatorService(nil, nil, nil, EvaluationDefaults{})
	if _, err := svc.Correlate(context.Background(), nil); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}
