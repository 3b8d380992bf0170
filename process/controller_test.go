// +build !windows

package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeServer creates a shell script that records its arguments, writes stderrText to
// standard error and exits with exitCode.
func writeFakeServer(t *testing.T, stderrText string, exitCode int) (exe string, argsFile string) {
	dir := t.TempDir()
	exe = filepath.Join(dir, "fake server")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\n" +
		"echo \"$@\" >> '" + argsFile + "'\n"
	if stderrText != "" {
		script += "echo '" + stderrText + "' >&2\n"
	}
	script += "exit " + string(rune('0'+exitCode)) + "\n"
	require.NoError(t, os.WriteFile(exe, []byte(script), 0o755))
	return exe, argsFile
}

func readArgs(t *testing.T, argsFile string) []string {
	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestStartSuccess(t *testing.T) {
	exe, argsFile := writeFakeServer(t, "", 0)
	c := NewController(exe, nil)

	r, err := c.Start(context.Background(), "/tmp/a.conf")
	require.NoError(t, err)
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "", r.Diagnostics)
	assert.Equal(t, []string{"-c /tmp/a.conf"}, readArgs(t, argsFile))
}

func TestStartThenStop(t *testing.T) {
	exe, argsFile := writeFakeServer(t, "", 0)
	c := NewController(exe, nil)

	_, err := c.Start(context.Background(), "/tmp/a.conf")
	require.NoError(t, err)
	_, err = c.Stop(context.Background(), "/tmp/a.conf")
	require.NoError(t, err)

	assert.Equal(t, []string{"-c /tmp/a.conf", "-c /tmp/a.conf -s stop"}, readArgs(t, argsFile))
}

func TestStartFailureCarriesDiagnostics(t *testing.T) {
	exe, _ := writeFakeServer(t, "bind() to 0.0.0.0:9990 failed", 1)
	c := NewController(exe, nil)

	r, err := c.Start(context.Background(), "/tmp/a.conf")
	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, 1, startErr.ExitCode)
	assert.Equal(t, "bind() to 0.0.0.0:9990 failed", startErr.Diagnostics)
	assert.Equal(t, r, startErr.Result)
	assert.Contains(t, err.Error(), "bind() to 0.0.0.0:9990 failed")
	assert.Contains(t, err.Error(), "'"+exe+"' -c /tmp/a.conf", "command line should be shell-quoted")
}

func TestStopFailure(t *testing.T) {
	exe, _ := writeFakeServer(t, "invalid PID number", 1)
	c := NewController(exe, nil)

	_, err := c.Stop(context.Background(), "/tmp/a.conf")
	var stopErr *StopError
	require.ErrorAs(t, err, &stopErr)
	assert.Equal(t, 1, stopErr.ExitCode)
	assert.Equal(t, "invalid PID number", stopErr.Diagnostics)
}

func TestDiagnosticsWithZeroExitCodeAreNotAFailure(t *testing.T) {
	exe, _ := writeFakeServer(t, "warning: something", 0)
	c := NewController(exe, nil)

	r, err := c.Start(context.Background(), "/tmp/a.conf")
	require.NoError(t, err)
	assert.Equal(t, "warning: something", r.Diagnostics)
}

func TestMissingExecutable(t *testing.T) {
	c := NewController(filepath.Join(t.TempDir(), "nope"), nil)

	_, err := c.Start(context.Background(), "/tmp/a.conf")
	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, -1, startErr.ExitCode)
}

func TestStartThatDoesNotExitIsKilled(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "foreground server")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\nexec sleep 10\n"), 0o755))
	c := NewController(exe, nil)
	c.Timeout = time.Millisecond * 200
	started := time.Now()

	_, err := c.Start(context.Background(), "/tmp/a.conf")
	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotEqual(t, 0, startErr.ExitCode)
	assert.True(t, time.Since(started) < time.Second*5)
}

func TestNewControllerHasDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewController("nginx", nil).Timeout)
}
