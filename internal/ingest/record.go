package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

const (
	unknownField    = "unknown"
	defaultSeverity = "info"
)

// naiveLayouts are accepted for timestamps without a zone; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Record is the JSONL shape of an exported alert. Pointer fields distinguish
// an absent key from an explicit empty value.
type Record struct {
	ID           string         `json:"id"`
	Timestamp    string         `json:"timestamp"`
	SourceSystem *string        `json:"source_system"`
	Host         *string        `json:"host"`
	Service      *string        `json:"service"`
	Severity     *string        `json:"severity"`
	AlertType    *string        `json:"alert_type"`
	Message      *string        `json:"message"`
	Tags         map[string]any `json:"tags"`
	RawPayload   map[string]any `json:"raw_payload"`
	TenantID     string         `json:"tenant_id"`
}

// ToAlert applies field defaults and normalises the timestamp to UTC. A
// missing timestamp takes now.
func (r Record) ToAlert(now time.Time) (models.Alert, error) {
	ts := now.UTC()
	if r.Timestamp != "" {
		parsed, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return models.Alert{}, err
		}
		ts = parsed
	}

	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}

	var tags map[string]string
	if len(r.Tags) > 0 {
		tags = make(map[string]string, len(r.Tags))
		for k, v := range r.Tags {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				tags[k] = s
				continue
			}
			tags[k] = fmt.Sprint(v)
		}
	}

	return models.Alert{
		ID:           id,
		Timestamp:    ts,
		SourceSystem: orDefault(r.SourceSystem, unknownField),
		Host:         orDefault(r.Host, unknownField),
		Service:      orDefault(r.Service, unknownField),
		Severity:     orDefault(r.Severity, defaultSeverity),
		AlertType:    orDefault(r.AlertType, unknownField),
		Message:      orDefault(r.Message, ""),
		Tags:         tags,
		RawPayload:   r.RawPayload,
		TenantID:     r.TenantID,
	}, nil
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := utils.ParseRFC3339(value); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
