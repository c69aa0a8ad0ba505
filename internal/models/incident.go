package models

import "time"

// Severity captures impact levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IncidentStatus tracks the incident lifecycle. The correlator only opens incidents.
type IncidentStatus string

const (
	IncidentStatusOpen   IncidentStatus = "open"
	IncidentStatusClosed IncidentStatus = "closed"
)

// Incident is created once per admissible alert group.
type Incident struct {
	ID                 string         `json:"id"`
	Tag                string         `json:"tag"`
	StartTime          time.Time      `json:"start_time"`
	EndTime            time.Time      `json:"end_time"`
	Severity           Severity       `json:"severity"`
	Status             IncidentStatus `json:"status"`
	RelatedAlertIDs    []string       `json:"related_alert_ids"`
	Summary            string         `json:"summary"`
	SuspectedRootCause *string        `json:"suspected_root_cause"`
	ImpactScope        string         `json:"impact_scope,omitempty"`
	Owner              string         `json:"owner,omitempty"`
	CreatedBy          string         `json:"created_by"`
	TenantID           string         `json:"tenant_id,omitempty"`
}
