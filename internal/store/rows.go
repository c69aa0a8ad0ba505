package store

import (
	"time"

	"github.com/miradorstack/teleops-rca/internal/models"
)

type alertRow struct {
	ID             string            `gorm:"primaryKey;size:64"`
	Timestamp      time.Time         `gorm:"index;not null"`
	CorrelationTag string            `gorm:"index;size:255"`
	SourceSystem   string            `gorm:"size:255"`
	Host           string            `gorm:"size:255"`
	Service        string            `gorm:"size:255"`
	Severity       string            `gorm:"size:32"`
	AlertType      string            `gorm:"size:255"`
	Message        string            `gorm:"type:text"`
	Tags           map[string]string `gorm:"serializer:json"`
	RawPayload     map[string]any    `gorm:"serializer:json"`
	TenantID       string            `gorm:"index;size:255"`
}

func (alertRow) TableName() string { return "alerts" }

type incidentRow struct {
	ID                 string    `gorm:"primaryKey;size:255"`
	Tag                string    `gorm:"index;size:255"`
	StartTime          time.Time `gorm:"index"`
	EndTime            time.Time
	Severity           string   `gorm:"size:32"`
	Status             string   `gorm:"index;size:32"`
	RelatedAlertIDs    []string `gorm:"serializer:json"`
	Summary            string   `gorm:"type:text"`
	SuspectedRootCause *string  `gorm:"type:text"`
	ImpactScope        string   `gorm:"size:255"`
	Owner              string   `gorm:"size:255"`
	CreatedBy          string   `gorm:"size:255"`
	TenantID           string   `gorm:"index;size:255"`
	CreatedAt          time.Time
}

func (incidentRow) TableName() string { return "incidents" }

type artifactRow struct {
	ID               string             `gorm:"primaryKey;size:64"`
	IncidentID       string             `gorm:"index;size:255"`
	Hypotheses       []string           `gorm:"serializer:json"`
	ConfidenceScores map[string]float64 `gorm:"serializer:json"`
	Evidence         models.Evidence    `gorm:"serializer:json"`
	Model            string             `gorm:"index;size:255"`
	Timestamp        time.Time          `gorm:"index"`
	DurationMs       float64
	Status           string `gorm:"size:32"`
}

func (artifactRow) TableName() string { return "rca_artifacts" }

func alertToRow(a models.Alert) alertRow {
	return alertRow{
		ID:             a.ID,
		Timestamp:      a.Timestamp.UTC(),
		CorrelationTag: a.CorrelationTag(),
		SourceSystem:   a.SourceSystem,
		Host:           a.Host,
		Service:        a.Service,
		Severity:       a.Severity,
		AlertType:      a.AlertType,
		Message:        a.Message,
		Tags:           a.Tags,
		RawPayload:     a.RawPayload,
		TenantID:       a.TenantID,
	}
}

func (r alertRow) toModel() models.Alert {
	return models.Alert{
		ID:           r.ID,
		Timestamp:    r.Timestamp.UTC(),
		SourceSystem: r.SourceSystem,
		Host:         r.Host,
		Service:      r.Service,
		Severity:     r.Severity,
		AlertType:    r.AlertType,
		Message:      r.Message,
		Tags:         r.Tags,
		RawPayload:   r.RawPayload,
		TenantID:     r.TenantID,
	}
}

func incidentToRow(i models.Incident) incidentRow {
	return incidentRow{
		ID:                 i.ID,
		Tag:                i.Tag,
		StartTime:          i.StartTime.UTC(),
		EndTime:            i.EndTime.UTC(),
		Severity:           string(i.Severity),
		Status:             string(i.Status),
		RelatedAlertIDs:    i.RelatedAlertIDs,
		Summary:            i.Summary,
		SuspectedRootCause: i.SuspectedRootCause,
		ImpactScope:        i.ImpactScope,
		Owner:              i.Owner,
		CreatedBy:          i.CreatedBy,
		TenantID:           i.TenantID,
	}
}

func (r incidentRow) toModel() models.Incident {
	return models.Incident{
		ID:                 r.ID,
		Tag:                r.Tag,
		StartTime:          r.StartTime.UTC(),
		EndTime:            r.EndTime.UTC(),
		Severity:           models.Severity(r.Severity),
		Status:             models.IncidentStatus(r.Status),
		RelatedAlertIDs:    r.RelatedAlertIDs,
		Summary:            r.Summary,
		SuspectedRootCause: r.SuspectedRootCause,
		ImpactScope:        r.ImpactScope,
		Owner:              r.Owner,
		CreatedBy:          r.CreatedBy,
		TenantID:           r.TenantID,
	}
}

func artifactToRow(a models.RCAArtifact) artifactRow {
	return artifactRow{
		ID:               a.ID,
		IncidentID:       a.IncidentID,
		Hypotheses:       a.Hypotheses,
		ConfidenceScores: a.ConfidenceScores,
		Evidence:         a.Evidence,
		Model:            a.Model,
		Timestamp:        a.Timestamp.UTC(),
		DurationMs:       a.DurationMs,
		Status:           a.Status,
	}
}

func (r artifactRow) toModel() models.RCAArtifact {
	return models.RCAArtifact{
		ID:               r.ID,
		IncidentID:       r.IncidentID,
		Hypotheses:       r.Hypotheses,
		ConfidenceScores: r.ConfidenceScores,
		Evidence:         r.Evidence,
		Model:            r.Model,
		Timestamp:        r.Timestamp.UTC(),
		DurationMs:       r.DurationMs,
		Status:           r.Status,
	}
}
