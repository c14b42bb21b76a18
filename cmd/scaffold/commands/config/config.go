// Package config implements configuration subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Inspect the environment-driven configuration.

Subcommands:
  validate  Validate the environment and print the effective configuration
  schema    Generate JSON schema for the environment variables`,
}

func init() {
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
}
