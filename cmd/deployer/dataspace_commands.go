package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func dataspaceAction(d dispatcher, verb string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		args, err := positional(cmd, "name")
		if err != nil {
			return err
		}
		return d.Dataspace(ctx, cmd, verb, args[0])
	}
}

func getDataspaceCommands(d dispatcher) *cli.Command {
	return &cli.Command{
		Name:  "dataspace",
		Usage: "Manage dataspaces",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a dataspace: databases, Keycloak realm and values files",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{nameArgument()},
				Action:    dataspaceAction(d, "create"),
			},
			{
				Name:      "delete",
				Usage:     "Delete the databases and the Keycloak realm of a dataspace",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{nameArgument()},
				Action:    dataspaceAction(d, "delete"),
			},
		},
	}
}
