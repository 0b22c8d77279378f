package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier posts finished releases to a Slack incoming webhook
type Notifier struct {
	webhookURL string
	channel    string
}

var _ interfaces.Notifier = (*Notifier)(nil)

// Option is a functional option for Notifier
type Option func(*Notifier)

// WithChannel overrides the webhook's default channel
func WithChannel(channel string) Option {
	return func(n *Notifier) {
		n.channel = channel
	}
}

// New creates a Notifier posting to webhookURL
func New(webhookURL string, opts ...Option) *Notifier {
	n := &Notifier{webhookURL: webhookURL}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyRelease posts the version, tag and push state of report
func (n *Notifier) NotifyRelease(ctx context.Context, report *model.RunReport) error {
	msg := &slack.WebhookMessage{
		Channel: n.channel,
		Text:    fmt.Sprintf("Released %s (%s release)", report.Version.String(), report.Flavor),
		Attachments: []slack.Attachment{
			{
				Color: "good",
				Fields: []slack.AttachmentField{
					{Title: "Version", Value: report.Version.String(), Short: true},
					{Title: "Tag", Value: report.Tag, Short: true},
					{Title: "Branch", Value: report.ReleaseBranch.Name, Short: true},
					{Title: "Pushed", Value: fmt.Sprintf("%t", report.Pushed), Short: true},
				},
				Footer: "run " + report.ID,
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post release to Slack",
			goerr.V("version", report.Version.String()))
	}
	return nil
}
