package backend

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process
// group was killed.
const waitDelay = 2 * time.Second

// CommandRunner executes an external program.
// This allows for testing by injecting mock implementations.
type CommandRunner interface {
	// Run executes name with args in dir and returns its captured output.
	// An empty dir runs in the current working directory. A program that ran
	// and exited non-zero reports the code with a nil error; err is set only
	// when the program could not be started or was killed.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, exitCode int, err error)
}

// DefaultCommandRunner implements CommandRunner using os/exec. Programs are
// started directly, never through a shell, so arguments need no quoting.
// Each program runs in its own process group; when ctx is done the whole
// group is killed, so helpers a tool spawned (solc, crytic-compile, a shell
// wrapper's children) cannot keep the run alive by holding its pipes.
type DefaultCommandRunner struct{}

// Run executes the program and captures stdout and stderr separately.
func (r *DefaultCommandRunner) Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, exitCode int, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	killProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		return stdout, stderr, exitErr.ExitCode(), nil
	default:
		exitCode = 1
	}

	return stdout, stderr, exitCode, err
}

// Ensure DefaultCommandRunner implements CommandRunner.
var _ CommandRunner = (*DefaultCommandRunner)(nil)
