package engine

import (
	"sort"

	"github.com/miradorstack/teleops-rca/internal/models"
)

// Grouper partitions alerts by correlation tag.
type Grouper struct{}

// NewGrouper constructs a Grouper.
func NewGrouper() *Grouper {
	return &Grouper{}
}

// Group buckets every alert under its correlation tag and orders each bucket by
// timestamp. Alerts sharing a timestamp keep their input order. No alert is dropped.
func (g *Grouper) Group(alerts []models.Alert) map[string]*models.AlertGroup {
	groups := make(map[string]*models.AlertGroup)
	for _, alert := range alerts {
		tag := alert.CorrelationTag()
		group, ok := groups[tag]
		if !ok {
			group = &models.AlertGroup{Tag: tag}
			groups[tag] = group
		}
		group.Alerts = append(group.Alerts, alert)
	}

	for _, group := range groups {
		sort.SliceStable(group.Alerts, func(i, j int) bool {
			return group.Alerts[i].Timestamp.Before(group.Alerts[j].Timestamp)
		})
		group.StartTime = group.Alerts[0].Timestamp
		group.EndTime = group.Alerts[len(group.Alerts)-1].Timestamp
	}
	return groups
}
