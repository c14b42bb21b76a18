package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/scaffold/internal/cli/output"
	"github.com/marmos91/scaffold/pkg/config"
)

// errInvalid is returned after the issues have been printed.
var errInvalid = errors.New("configuration is invalid")

var validateOutput string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the environment",
	Long: `Validate the environment the service would start with.

Every problem is reported, one per row. When the configuration is valid the
effective values are printed with credentials masked.

Examples:
  # Validate ./.env plus the process environment
  scaffold config validate

  # Validate a specific env file and print JSON
  scaffold config validate --env-file deploy/.env -o json`,
	RunE: runConfigValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(validateOutput)
	if err != nil {
		return err
	}

	envFiles, _ := cmd.Flags().GetStringArray("env-file")
	noColor, _ := cmd.Flags().GetBool("no-color")
	printer := output.NewPrinter(cmd.OutOrStdout(), format, !noColor)

	cfg, err := config.Load(envFiles...)
	if err != nil {
		var cfgErr *config.ConfigError
		if !errors.As(err, &cfgErr) {
			return err
		}
		if format == output.FormatTable {
			printer.Error("Validation: FAILED")
		}
		if err := printer.Print(output.IssueTable(cfgErr.Issues())); err != nil {
			return err
		}
		return errInvalid
	}

	if format == output.FormatTable {
		printer.Success("Validation: OK")
		return printer.Print(effectivePairs(cfg.Redacted()))
	}
	return printer.Print(cfg.Redacted())
}

// effectivePairs lists the configuration in environment-variable order.
func effectivePairs(cfg config.Config) output.Pairs {
	return output.Pairs{
		{"PORT", strconv.Itoa(cfg.Port)},
		{"HOST", cfg.Host},
		{"LOG_NAME", cfg.LogName},
		{"LOG_LEVEL", cfg.LogLevel},
		{"LOG_FORMAT", cfg.LogFormat},
		{"DATABASE_URL", cfg.DatabaseURL},
		{"SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout.String()},
		{"TELEMETRY_ENDPOINT", orDash(cfg.TelemetryEndpoint)},
		{"TELEMETRY_SAMPLE_RATE", fmt.Sprintf("%g", cfg.TelemetrySampleRate)},
		{"PROFILING_ENDPOINT", orDash(cfg.ProfilingEndpoint)},
		{"BODY_LIMIT", cfg.BodyLimit.String()},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
