package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func connectorAction(d dispatcher, verb string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		args, err := positional(cmd, "name", "dataspace")
		if err != nil {
			return err
		}
		return d.Connector(ctx, cmd, verb, args[0], args[1])
	}
}

func getConnectorCommands(d dispatcher) *cli.Command {
	subcommand := func(verb, usage string) *cli.Command {
		return &cli.Command{
			Name:      verb,
			Usage:     usage,
			ArgsUsage: "<name> <dataspace>",
			Arguments: []cli.Argument{nameArgument(), dataspaceArgument()},
			Action:    connectorAction(d, verb),
		}
	}

	return &cli.Command{
		Name:  "connector",
		Usage: "Manage connectors inside a dataspace",
		Commands: []*cli.Command{
			subcommand("create", "Create a connector: database, certificates, Keycloak identity, Vault secrets"),
			subcommand("delete", "Delete the connector database and Keycloak identity"),
			subcommand("fix", "Apply pending schema fixes to the connector database"),
			subcommand("renew", "Issue a new Vault token for the connector and check its secrets"),
			subcommand("minio", "Check the connector bucket and list its objects"),
			subcommand("checkdb", "Connect to the connector database with its recorded credentials"),
		},
	}
}
