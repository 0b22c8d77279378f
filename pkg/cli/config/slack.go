package config

import (
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds release notification configuration
type Slack struct {
	WebhookURL string `masq:"secret"`
	Channel    string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL notified on successful releases",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel overriding the webhook default",
			Destination: &c.Channel,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_SLACK_CHANNEL"),
		},
	}
}

// Notifier returns a Slack notifier, or nil when no webhook URL is configured
func (c *Slack) Notifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}

	var opts []slack.Option
	if c.Channel != "" {
		opts = append(opts, slack.WithChannel(c.Channel))
	}
	return slack.New(c.WebhookURL, opts...)
}
