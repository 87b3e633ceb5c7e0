package main

import (
	"github.com/urfave/cli/v3"

	"github.com/inesdata/dataspace-tools/internal/config"
)

func globalFlags() []cli.Flag {
	defaults := config.DefaultDeployer()
	return []cli.Flag{
		&cli.StringFlag{Name: "pg-user", Value: defaults.PGUser, Usage: "Postgres admin user"},
		&cli.StringFlag{Name: "pg-password", Value: defaults.PGPassword, Usage: "Postgres admin password"},
		&cli.StringFlag{Name: "pg-host", Value: defaults.PGHost, Usage: "Postgres host address"},
		&cli.StringFlag{Name: "kc-user", Value: defaults.KCUser, Usage: "Keycloak admin user"},
		&cli.StringFlag{Name: "kc-password", Value: defaults.KCPassword, Usage: "Keycloak admin password"},
		&cli.StringFlag{Name: "kc-url", Value: defaults.KCURL, Usage: "Keycloak server admin API address"},
		&cli.StringFlag{Name: "kc-internal-url", Value: defaults.KCInternalURL, Usage: "Keycloak internal URL"},
		&cli.StringFlag{Name: "vt-token", Value: defaults.VTToken, Usage: "Vault root token"},
		&cli.StringFlag{Name: "vt-url", Value: defaults.VTURL, Usage: "Vault server address"},
		&cli.StringFlag{
			Name:    "in-env",
			Aliases: []string{"in_env"},
			Value:   defaults.Environment,
			Usage:   "PRO or DEV environment",
		},
		&cli.StringFlag{
			Name:  "config",
			Value: config.DefaultDeployerConfigFile,
			Usage: "KEY=VALUE file whose entries override the flags",
		},
		&cli.StringFlag{
			Name:  "root",
			Value: defaults.Root,
			Usage: "Directory holding deployments/ and the values templates",
		},
		&cli.StringFlag{Name: "log-level", Value: defaults.LogLevel, Usage: "Log level (debug, info, warn, error)"},
		&cli.BoolFlag{Name: "rollback", Usage: "Undo completed steps when a create command fails"},
		&cli.BoolFlag{Name: "tls-skip-verify", Usage: "Skip TLS verification of Keycloak and Vault"},
	}
}

// loadConfig builds the deployer configuration from the global flags and
// overlays the config file.
func loadConfig(cmd *cli.Command) (*config.Deployer, error) {
	base := config.DefaultDeployer()
	base.PGUser = cmd.String("pg-user")
	base.PGPassword = cmd.String("pg-password")
	base.PGHost = cmd.String("pg-host")
	base.KCUser = cmd.String("kc-user")
	base.KCPassword = cmd.String("kc-password")
	base.KCURL = cmd.String("kc-url")
	base.KCInternalURL = cmd.String("kc-internal-url")
	base.VTToken = cmd.String("vt-token")
	base.VTURL = cmd.String("vt-url")
	base.Environment = cmd.String("in-env")
	base.Root = cmd.String("root")
	base.LogLevel = cmd.String("log-level")
	base.Rollback = cmd.Bool("rollback")
	base.TLSSkipVerify = cmd.Bool("tls-skip-verify")

	return config.LoadDeployer(cmd.String("config"), base)
}
