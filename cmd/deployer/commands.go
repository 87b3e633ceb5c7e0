package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/inesdata/dataspace-tools/cmd/deployer/commands"
	"github.com/inesdata/dataspace-tools/internal/app"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// dispatcher runs an entity command once its positional arguments are parsed.
type dispatcher interface {
	Dataspace(ctx context.Context, cmd *cli.Command, verb, name string) error
	Connector(ctx context.Context, cmd *cli.Command, verb, name, dataspace string) error
}

func newRootCommand(d dispatcher) *cli.Command {
	return &cli.Command{
		Name:     "deployer",
		Usage:    "Provision INESData dataspaces and connectors",
		Version:  "1.0.0",
		Flags:    globalFlags(),
		Commands: getCommands(d),
	}
}

func getCommands(d dispatcher) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getDataspaceCommands(d))
	cmds = append(cmds, getConnectorCommands(d))
	return cmds
}

func nameArgument() cli.Argument {
	return &cli.StringArg{Name: "name", UsageText: "<name>"}
}

func dataspaceArgument() cli.Argument {
	return &cli.StringArg{Name: "dataspace", UsageText: "<dataspace>"}
}

// positional returns the named arguments of cmd in order. A missing or blank
// one is an ErrInvalidInput carrying the usage line.
func positional(cmd *cli.Command, names ...string) ([]string, error) {
	values := make([]string, 0, len(names))
	for _, name := range names {
		value := strings.TrimSpace(cmd.StringArg(name))
		if value == "" {
			return nil, apperrors.Wrap(
				apperrors.ErrInvalidInput,
				fmt.Sprintf("missing <%s> argument, usage: %s %s", name, cmd.FullName(), cmd.ArgsUsage),
			)
		}
		values = append(values, value)
	}
	return values, nil
}

// withContainer loads the configuration, builds a container and runs fn with it.
func withContainer(
	ctx context.Context,
	cmd *cli.Command,
	fn func(container *app.DeployerContainer) error,
) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	container := app.NewDeployerContainer(cfg, commands.DefaultIO().Writer)
	defer commands.CloseContainer(container, container.Logger())

	return fn(container)
}
