package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/gitflow-release/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting configuration
type Sentry struct {
	DSN string `masq:"secret"`
	Env string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN; failed releases are reported when set",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Value:       "production",
			Destination: &c.Env,
			Sources:     cli.EnvVars("GITFLOW_RELEASE_SENTRY_ENV"),
		},
	}
}

// Enabled reports whether a DSN is configured
func (c *Sentry) Enabled() bool { return c.DSN != "" }

// Configure initializes the Sentry client and returns a function flushing buffered events.
// Without a DSN it does nothing.
func (c *Sentry) Configure() (func(), error) {
	if !c.Enabled() {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Env,
		Release:     "gitflow-release@" + types.Version,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize Sentry", goerr.V("env", c.Env))
	}

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}

// Capture reports err to Sentry when it is configured
func (c *Sentry) Capture(err error) {
	if !c.Enabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
}
