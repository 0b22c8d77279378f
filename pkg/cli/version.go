package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/gitflow-release/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdVersion() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version",
		Action: func(ctx context.Context, c *cli.Command) error {
			_, err := fmt.Fprintf(c.Root().Writer, "gitflow-release %s\n", types.Version)
			return err
		},
	}
}
