package models

import "time"

const (
	// CorrelationTagKey is the tags entry carrying an alert's correlation tag.
	CorrelationTagKey = "incident"
	// UnknownTag groups alerts that carry no correlation tag.
	UnknownTag = "unknown"
)

// Alert is a single observed telemetry event. Alerts are read-only once ingested.
type Alert struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	SourceSystem string            `json:"source_system"`
	Host         string            `json:"host"`
	Service      string            `json:"service"`
	Severity     string            `json:"severity"`
	AlertType    string            `json:"alert_type"`
	Message      string            `json:"message"`
	Tags         map[string]string `json:"tags,omitempty"`
	RawPayload   map[string]any    `json:"raw_payload,omitempty"`
	TenantID     string            `json:"tenant_id,omitempty"`
}

// CorrelationTag returns the alert's grouping key, or UnknownTag when absent.
func (a Alert) CorrelationTag() string {
	if tag, ok := a.Tags[CorrelationTagKey]; ok && tag != "" {
		return tag
	}
	return UnknownTag
}

// AlertGroup is a time-ordered, non-empty run of alerts sharing one correlation tag.
type AlertGroup struct {
	Tag       string
	Alerts    []Alert
	StartTime time.Time
	EndTime   time.Time
}

// Count returns the number of alerts in the group.
func (g *AlertGroup) Count() int {
	return len(g.Alerts)
}

// Span returns EndTime - StartTime.
func (g *AlertGroup) Span() time.Duration {
	return g.EndTime.Sub(g.StartTime)
}

// AlertIDs returns member ids in group order.
func (g *AlertGroup) AlertIDs() []string {
	ids := make([]string, 0, len(g.Alerts))
	for _, a := range g.Alerts {
		ids = append(ids, a.ID)
	}
	return ids
}
