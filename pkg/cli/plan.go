package cli

import (
	"context"

	"github.com/m-mizutani/gitflow-release/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdPlan() *cli.Command {
	var releaseCfg config.Release

	return &cli.Command{
		Name:    "plan",
		Aliases: []string{"p"},
		Usage:   "Show the release task order without touching the repository",
		Flags:   releaseCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := releaseCfg.Build(c.IsSet)
			if err != nil {
				return err
			}

			uc, err := newReleaseUseCase(releaseCfg.Dir, cfg.TagPrefix, nil)
			if err != nil {
				return err
			}

			order, err := uc.Plan(cfg)
			if err != nil {
				return err
			}
			return printPlan(c.Root().Writer, cfg, order)
		},
	}
}
