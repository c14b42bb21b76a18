// Package commands implements the scaffold command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/scaffold/cmd/scaffold/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	envFiles []string
)

// rootCmd starts the service when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Scaffold - HTTP service skeleton",
	Long: `Scaffold runs an HTTP service backed by a SQL database.

Configuration is read from the environment. Variables may also be placed in
one or more env files; values already set in the environment win.

Running scaffold without a subcommand is the same as "scaffold start".

Use "scaffold [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runStart,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringArrayVar(&envFiles, "env-file", nil, "env file to load, repeatable (default: .env)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// EnvFiles returns the env files given on the command line.
func EnvFiles() []string {
	return envFiles
}
