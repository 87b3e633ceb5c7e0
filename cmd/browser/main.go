// Package main provides the entry point for the dataspace browser server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/inesdata/dataspace-tools/cmd/browser/commands"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "browser",
		Usage:   "Browse an INESData dataspace catalog and pull datasets through the consumer connector",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the API and metrics servers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "check",
				Usage: "Check that the identity provider realm is reachable",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCheck(ctx, commands.DefaultIO().Writer)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
