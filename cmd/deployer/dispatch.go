package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/inesdata/dataspace-tools/cmd/deployer/commands"
	"github.com/inesdata/dataspace-tools/internal/app"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// containerDispatcher runs commands against the services configured by the
// global flags and the config file.
type containerDispatcher struct{}

func (containerDispatcher) Dataspace(ctx context.Context, cmd *cli.Command, verb, name string) error {
	return withContainer(ctx, cmd, func(container *app.DeployerContainer) error {
		useCase, err := container.DataspaceUseCase(ctx)
		if err != nil {
			return err
		}
		switch verb {
		case "create":
			return commands.RunCreateDataspace(ctx, useCase, container.Logger(), name)
		case "delete":
			return commands.RunDeleteDataspace(ctx, useCase, container.Logger(), name)
		}
		return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown dataspace command %q", verb))
	})
}

func (containerDispatcher) Connector(ctx context.Context, cmd *cli.Command, verb, name, dataspace string) error {
	writer := commands.DefaultIO().Writer
	return withContainer(ctx, cmd, func(container *app.DeployerContainer) error {
		useCase, err := container.ConnectorUseCase(ctx)
		if err != nil {
			return err
		}
		logger := container.Logger()
		switch verb {
		case "create":
			return commands.RunCreateConnector(ctx, useCase, logger, name, dataspace)
		case "delete":
			return commands.RunDeleteConnector(ctx, useCase, logger, name, dataspace)
		case "fix":
			return commands.RunFixConnector(ctx, useCase, logger, name, dataspace)
		case "renew":
			return commands.RunRenewConnector(ctx, useCase, logger, writer, name, dataspace)
		case "minio":
			return commands.RunCheckBucket(ctx, useCase, logger, writer, name, dataspace)
		case "checkdb":
			return commands.RunCheckDatabase(ctx, useCase, logger, name, dataspace)
		}
		return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown connector command %q", verb))
	})
}
