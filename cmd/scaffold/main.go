package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/marmos91/scaffold/cmd/scaffold/commands"
	"github.com/marmos91/scaffold/pkg/config"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, cfgErr.FriendlyString())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
