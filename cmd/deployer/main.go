// Package main provides the entry point for the dataspace deployer CLI.
package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	if err := newRootCommand(containerDispatcher{}).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
