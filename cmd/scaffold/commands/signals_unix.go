//go:build !windows

package commands

import (
	"os"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2}
