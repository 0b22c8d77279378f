package config_test

import (
	"testing"

	"github.com/m-mizutani/gitflow-release/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func TestSlack_Notifier(t *testing.T) {
	gt.Value(t, (&config.Slack{}).Notifier()).Nil()
	gt.Value(t, (&config.Slack{WebhookURL: "https://hooks.slack.com/services/x"}).Notifier()).NotNil()
}

func TestSentry_Disabled(t *testing.T) {
	c := &config.Sentry{}
	gt.False(t, c.Enabled())

	flush, err := c.Configure()
	gt.NoError(t, err)
	flush()
}
