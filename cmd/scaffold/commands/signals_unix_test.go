//go:build !windows

package commands

import (
	"net"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const childEnv = "SCAFFOLD_START_CHILD"

// TestStartRepeatedSignals re-executes the test binary as a running service
// and sends SIGTERM twice. The second signal lands while the first shutdown
// is still in progress and must not kill the process.
func TestStartRepeatedSignals(t *testing.T) {
	if os.Getenv(childEnv) == "1" {
		if _, err := execute(t, "start"); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}
	if testing.Short() {
		t.Skip("spawns a subprocess")
	}

	port := freePort(t)
	cmd := exec.Command(os.Args[0], "-test.run=^TestStartRepeatedSignals$")
	cmd.Env = append(os.Environ(),
		childEnv+"=1",
		"HOST=127.0.0.1",
		"PORT="+strconv.Itoa(port),
		"LOG_NAME=scaffold-test",
		"LOG_LEVEL=silent",
		"DATABASE_URL=sqlite::memory:",
	)
	require.NoError(t, cmd.Start())

	waitListening(t, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))

	require.NoError(t, cmd.Process.Signal(syscall.SIGTERM))
	require.NoError(t, cmd.Process.Signal(syscall.SIGTERM))
	time.Sleep(50 * time.Millisecond)
	// The child may already be gone; only its exit status matters.
	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err, "child must exit cleanly after repeated signals")
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("child did not exit")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func waitListening(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("service never listened on %s", addr)
}
