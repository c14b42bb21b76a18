package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/marmos91/scaffold/internal/logger"
	"github.com/marmos91/scaffold/pkg/app"
	"github.com/marmos91/scaffold/pkg/config"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the service",
	Long: `Start the service in the foreground.

The database is connected first, then the HTTP listener is bound. SIGINT and
SIGTERM (and SIGUSR2 outside Windows) stop the listener and disconnect the
database; signals received while shutting down are ignored. The process
exits 1 when the configuration is invalid, startup fails, the listener dies
while running or the shutdown does not complete cleanly.

Examples:
  # Start with ./.env
  scaffold start

  # Layer several env files
  scaffold start --env-file .env --env-file .env.local

  # Override a variable
  LOG_LEVEL=debug scaffold start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(EnvFiles()...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.New(ctx, cfg, app.Options{Version: Version})
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, shutdownSignals...)
	defer signal.Stop(sigChan)

	closeFn, err := application.Start(ctx)
	if err != nil {
		logger.Error("Service failed to start", logger.Err(err))
		return err
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown", "signal", sig.String())
	case serveErr = <-application.Done():
		logger.Error("Server stopped unexpectedly, shutting down", logger.Err(serveErr))
	}

	// Signals stay captured until teardown settles; a repeated Ctrl+C must
	// not kill the process halfway through closing the database.
	settled := make(chan struct{})
	defer close(settled)
	go func() {
		for {
			select {
			case sig := <-sigChan:
				logger.Warn("Shutdown already in progress", "signal", sig.String())
			case <-settled:
				return
			}
		}
	}()

	if err := closeFn(ctx); err != nil {
		logger.Error("Server shutdown error", logger.Err(err))
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if serveErr != nil {
		return serveErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}
