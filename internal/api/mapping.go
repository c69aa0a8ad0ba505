package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/teleops-rca/internal/ingest"
	"github.com/miradorstack/teleops-rca/internal/models"
)

// CorrelateRequest carries a batch of raw alerts to correlate.
type CorrelateRequest struct {
	Alerts []ingest.Record `json:"alerts"`
}

// CorrelateResponse lists the incidents opened by a correlation run.
type CorrelateResponse struct {
	Incidents []models.Incident `json:"incidents"`
}

// HypothesizeRequest names a stored incident.
type HypothesizeRequest struct {
	IncidentID string `json:"incident_id"`
}

// MatchRequest runs the baseline matcher on ad-hoc text.
type MatchRequest struct {
	Summary string          `json:"summary"`
	Alerts  []ingest.Record `json:"alerts"`
}

// LatestRCARequest asks for the newest stored hypothesis of an incident.
type LatestRCARequest struct {
	IncidentID string `json:"incident_id"`
	Source     string `json:"source"`
}

// EvaluateRequest sizes a synthetic evaluation.
type EvaluateRequest struct {
	Runs     int `json:"runs"`
	Parallel int `json:"parallel"`
}

// List bounds. A zero limit takes DefaultListLimit; larger values are clamped
// to MaxListLimit.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ListRequest pages stored alerts or incidents, newest first.
type ListRequest struct {
	Limit int `json:"limit"`
}

// ListAlertsResponse carries stored alerts.
type ListAlertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

// ListIncidentsResponse carries stored incidents.
type ListIncidentsResponse struct {
	Incidents []models.Incident `json:"incidents"`
}

// OverviewResponse summarises stored state.
type OverviewResponse struct {
	Alerts    int64 `json:"alerts"`
	Incidents int64 `json:"incidents"`
	Artifacts int64 `json:"rca_artifacts"`
	Rules     int   `json:"rules"`
}

// ToStruct encodes v as a protobuf Struct via its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// FromStruct decodes s into out via its JSON form. A nil s decodes as {}.
func FromStruct(s *structpb.Struct, out any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// DecodeCorrelateRequest converts a Struct into domain alerts.
func DecodeCorrelateRequest(s *structpb.Struct, now time.Time) ([]models.Alert, error) {
	var req CorrelateRequest
	if err := FromStruct(s, &req); err != nil {
		return nil, err
	}
	return recordsToAlerts(req.Alerts, now)
}

// DecodeMatchRequest converts a Struct into a summary and domain alerts.
func DecodeMatchRequest(s *structpb.Struct, now time.Time) (string, []models.Alert, error) {
	var req MatchRequest
	if err := FromStruct(s, &req); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(req.Summary) == "" && len(req.Alerts) == 0 {
		return "", nil, fmt.Errorf("summary or alerts are required")
	}
	alerts, err := recordsToAlerts(req.Alerts, now)
	if err != nil {
		return "", nil, err
	}
	return req.Summary, alerts, nil
}

// DecodeHypothesizeRequest extracts the incident id.
func DecodeHypothesizeRequest(s *structpb.Struct) (string, error) {
	var req HypothesizeRequest
	if err := FromStruct(s, &req); err != nil {
		return "", err
	}
	if req.IncidentID == "" {
		return "", fmt.Errorf("incident_id is required")
	}
	return req.IncidentID, nil
}

// DecodeLatestRCARequest extracts the incident id and source filter.
func DecodeLatestRCARequest(s *structpb.Struct) (LatestRCARequest, error) {
	var req LatestRCARequest
	if err := FromStruct(s, &req); err != nil {
		return LatestRCARequest{}, err
	}
	if req.IncidentID == "" {
		return LatestRCARequest{}, fmt.Errorf("incident_id is required")
	}
	return req, nil
}

// DecodeEvaluateRequest extracts run sizing. Zero values are left for defaults.
func DecodeEvaluateRequest(s *structpb.Struct) (EvaluateRequest, error) {
	var req EvaluateRequest
	if err := FromStruct(s, &req); err != nil {
		return EvaluateRequest{}, err
	}
	if req.Runs < 0 || req.Parallel < 0 {
		return EvaluateRequest{}, fmt.Errorf("runs and parallel must be non-negative")
	}
	return req, nil
}

// DecodeListRequest extracts and bounds the list limit.
func DecodeListRequest(s *structpb.Struct) (int, error) {
	var req ListRequest
	if err := FromStruct(s, &req); err != nil {
		return 0, err
	}
	switch {
	case req.Limit < 0:
		return 0, fmt.Errorf("limit must be non-negative")
	case req.Limit == 0:
		return DefaultListLimit, nil
	case req.Limit > MaxListLimit:
		return MaxListLimit, nil
	}
	return req.Limit, nil
}

func recordsToAlerts(records []ingest.Record, now time.Time) ([]models.Alert, error) {
	alerts := make([]models.Alert, 0, len(records))
	for i, rec := range records {
		alert, err := rec.ToAlert(now)
		if err != nil {
			return nil, fmt.Errorf("alerts[%d]: %w", i, err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
