package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/miradorstack/teleops-rca/internal/models"
)

// SlackNotifier posts newly opened incidents to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier for webhookURL. A non-positive timeout
// defaults to five seconds.
func NewSlackNotifier(webhookURL string, timeout time.Duration, logger *slog.Logger) *SlackNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// IncidentOpened implements engine.Notifier.
func (n *SlackNotifier) IncidentOpened(ctx context.Context, incident models.Incident) error {
	msg := &slack.WebhookMessage{
		Text: Message(incident),
		Attachments: []slack.Attachment{
			{
				Color: "danger",
				Fields: []slack.AttachmentField{
					{Title: "Tag", Value: incident.Tag, Short: true},
					{Title: "Severity", Value: string(incident.Severity), Short: true},
					{Title: "Start", Value: incident.StartTime.UTC().Format(time.RFC3339), Short: true},
					{Title: "End", Value: incident.EndTime.UTC().Format(time.RFC3339), Short: true},
				},
			},
		},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.httpClient, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	n.logger.Debug("incident announced", slog.String("incident_id", incident.ID))
	return nil
}

// Message renders the one-line announcement for an incident.
func Message(incident models.Incident) string {
	return fmt.Sprintf("Incident %s opened: %s (%d alerts)", incident.ID, incident.Summary, len(incident.RelatedAlertIDs))
}
