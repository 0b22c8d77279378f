package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/cli/config"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/infra/git"
	"github.com/m-mizutani/gitflow-release/pkg/infra/history"
	"github.com/m-mizutani/gitflow-release/pkg/infra/manifest"
	"github.com/m-mizutani/gitflow-release/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdRelease() *cli.Command {
	var (
		releaseCfg config.Release
		slackCfg   config.Slack
	)

	flags := append(releaseCfg.Flags(), slackCfg.Flags()...)

	return &cli.Command{
		Name:    "release",
		Aliases: []string{"r"},
		Usage:   "Bump, tag and merge a release or hotfix",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := releaseCfg.Build(c.IsSet)
			if err != nil {
				return err
			}

			logger := ctxlog.From(ctx)
			logger.Info("Release configuration",
				slog.String("dir", releaseCfg.Dir),
				slog.Any("config", cfg),
				slog.Any("slack", slackCfg),
			)

			uc, err := newReleaseUseCase(releaseCfg.Dir, cfg.TagPrefix, slackCfg.Notifier())
			if err != nil {
				return err
			}

			// An interrupt stops the run before the next task starts
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := uc.Release(ctx, cfg)
			if report != nil {
				if perr := printReport(c.Root().Writer, report); perr != nil {
					logger.Warn("Failed to print report", slog.Any("error", perr))
				}
			}
			return err
		},
	}
}

func newReleaseUseCase(dir, tagPrefix string, notifier interfaces.Notifier) (interfaces.ReleaseUseCase, error) {
	repo := git.New(dir)

	hist, err := history.New(repo, history.WithTagPrefix(tagPrefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create commit history")
	}

	manifests := usecase.NewManifestSet(dir,
		usecase.WithManifestFormat(".json", manifest.NewJSON()),
		usecase.WithManifestFormat(".xml", manifest.NewXML()),
	)

	var opts []usecase.ReleaseOption
	if notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
	}

	return usecase.NewRelease(repo, hist, manifests, opts...), nil
}
