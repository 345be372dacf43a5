// Package notifier forwards accepted reports to moderators.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/jhchabran/agora"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// postFunc matches slack.PostWebhook.
type postFunc func(url string, msg *slack.WebhookMessage) error

// A Slack posts reports to a Slack incoming webhook.
type Slack struct {
	webhookURL string
	logger     zerolog.Logger
	post       postFunc
}

// NewSlack returns a notifier posting to the given incoming webhook URL.
func NewSlack(webhookURL string, logger zerolog.Logger) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		logger:     logger,
		post:       slack.PostWebhook,
	}
}

// Message formats the Slack message announcing a report.
func Message(ev *agora.ReportEvent) *slack.WebhookMessage {
	text := fmt.Sprintf("New report on %s #%d: %s", ev.ContentType, ev.ContentID, ev.Reason)
	return &slack.WebhookMessage{
		Text: text,
		Attachments: []slack.Attachment{
			{
				Fields: []slack.AttachmentField{
					{Title: "Content", Value: fmt.Sprintf("%s #%d", ev.ContentType, ev.ContentID), Short: true},
					{Title: "Client", Value: ev.ClientID, Short: true},
					{Title: "Reason", Value: ev.Reason},
				},
				Footer: "Reported at " + ev.ReportedAt.UTC().Format(time.RFC3339),
			},
		},
	}
}

// Hook is an agora.ReportHook posting each report.
func (s *Slack) Hook(ctx context.Context, ev *agora.ReportEvent) error {
	if err := s.post(s.webhookURL, Message(ev)); err != nil {
		return fmt.Errorf("failed to post report to slack: %w", err)
	}

	s.logger.Debug().Int64("content_id", ev.ContentID).Str("content_type", ev.ContentType.String()).Msg("Report posted to slack")
	return nil
}
