package engine

import (
	"fmt"
	"time"

	"github.com/miradorstack/teleops-rca/internal/models"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedIDs struct{}

func (fixedIDs) IncidentID(tag string, at time.Time) string {
	return FormatIncidentID(tag, at, "abcd")
}

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return baseTime })
}

// burst builds n alerts for tag, step apart, starting at start.
func burst(tag string, n int, start time.Time, step time.Duration) []models.Alert {
	alerts := make([]models.Alert, 0, n)
	for i := 0; i < n; i++ {
		alerts = append(alerts, models.Alert{
			ID:        fmt.Sprintf("%s-%02d", tag, i),
			Timestamp: start.Add(time.Duration(i) * step),
			Host:      "core-router-1",
			Service:   "backbone",
			Severity:  "major",
			AlertType: "packet_loss",
			Message:   "packet loss above threshold",
			Tags:      map[string]string{models.CorrelationTagKey: tag},
			TenantID:  "tenant-a",
		})
	}
	return alerts
}

func groupsWithCounts(counts map[string]int) map[string]*models.AlertGroup {
	var alerts []models.Alert
	for tag, n := range counts {
		alerts = append(alerts, burst(tag, n, baseTime, time.Second)...)
	}
	return NewGrouper().Group(alerts)
}
