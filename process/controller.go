// Package process starts and stops the server under test through its command-line interface.
//
// The server daemonizes itself, so there is no process handle to hold on to: each operation
// is one invocation of the executable that is expected to exit promptly, and its exit status
// is the only thing that decides success. Standard error is kept as diagnostic text.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/pushstream/contract-tests/framework"
)

// Result describes one invocation of the server executable.
type Result struct {
	Command     string
	ExitCode    int
	Diagnostics string
}

// StartError means the start command did not exit with status 0.
type StartError struct {
	Result
	Err error
}

func (e *StartError) Error() string {
	return describeFailure("server did not start", e.Result, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// StopError means the stop command did not exit with status 0.
type StopError struct {
	Result
	Err error
}

func (e *StopError) Error() string {
	return describeFailure("server did not stop", e.Result, e.Err)
}

func (e *StopError) Unwrap() error { return e.Err }

func describeFailure(what string, r Result, err error) string {
	msg := fmt.Sprintf("%s (exit code %d): %s", what, r.ExitCode, r.Command)
	if r.Diagnostics != "" {
		msg += " - " + r.Diagnostics
	}
	if err != nil && r.ExitCode < 0 {
		msg += fmt.Sprintf(" (%s)", err)
	}
	return msg
}

// Controller runs the server executable. It keeps no state of its own, so calling Stop when
// nothing is running simply reports whatever the executable says about that.
type Controller struct {
	executable string
	logger     framework.Logger

	// Timeout limits each invocation of the executable. The server is expected to put itself
	// in the background, so an invocation that is still running after this long is killed
	// and reported as a failure. This happens if daemon or master_process is turned off.
	Timeout time.Duration
}

// DefaultTimeout is the initial value of Controller.Timeout.
const DefaultTimeout = time.Second * 30

func NewController(executable string, logger framework.Logger) *Controller {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Controller{executable: executable, logger: logger, Timeout: DefaultTimeout}
}

// Start runs "<exe> -c <configPath>" and waits for that command to exit.
func (c *Controller) Start(ctx context.Context, configPath string) (Result, error) {
	r, err := c.invoke(ctx, "-c", configPath)
	if err != nil {
		return r, &StartError{Result: r, Err: err}
	}
	return r, nil
}

// Stop runs "<exe> -c <configPath> -s stop" and waits for that command to exit.
func (c *Controller) Stop(ctx context.Context, configPath string) (Result, error) {
	r, err := c.invoke(ctx, "-c", configPath, "-s", "stop")
	if err != nil {
		return r, &StopError{Result: r, Err: err}
	}
	return r, nil
}

func (c *Controller) invoke(ctx context.Context, args ...string) (Result, error) {
	var cmdLine commandBuilder
	cmdLine.add(c.executable)
	cmdLine.add(args...)
	r := Result{Command: cmdLine.String()}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.executable, args...)
	cmd.Stderr = &stderr

	c.logger.Printf("Running: %s", r.Command)
	err := cmd.Run()
	r.Diagnostics = strings.TrimSpace(stderr.String())
	if r.Diagnostics != "" {
		c.logger.Printf("Diagnostic output: %s", r.Diagnostics)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.ExitCode = exitErr.ExitCode()
		} else {
			r.ExitCode = -1
		}
		c.logger.Printf("Command failed with exit code %d", r.ExitCode)
		if ctx.Err() != nil {
			return r, fmt.Errorf("command did not exit within %s: %w", timeout, ctx.Err())
		}
		return r, err
	}
	return r, nil
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
