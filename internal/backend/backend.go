// Package backend runs the external analysis tool either as a local process
// or inside a throwaway container.
//
// Both variants share one contract: given a target, a compiler version and
// remaps they return an Output and never an error. Timeouts and launch
// failures become unsuccessful outputs with a descriptive stderr.
package backend

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/mrz1836/sieve/internal/prep"
)

// Mode identifies a backend variant.
type Mode string

// Backend variants.
const (
	ModeNative    Mode = "native"
	ModeContainer Mode = "container"
)

// Invocation describes one tool run.
type Invocation struct {
	// Executable is the tool's command name, e.g. "slither".
	Executable string

	// DisplayName names the tool in timeout messages, e.g. "Slither".
	DisplayName string

	// Target is the absolute file or directory to analyze.
	Target string

	// Root overrides the container mount root. It must contain Target.
	// Extracted projects set it so dependency remaps stay visible.
	Root string

	// Version is the compiler version to activate.
	Version string

	// Remaps are passed to the tool as one space-separated option.
	Remaps []prep.Remap

	// Timeout bounds the run. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Output is the raw result of a tool run.
type Output struct {
	Success bool
	Stdout  string
	Stderr  string
}

// Backend executes invocations.
type Backend interface {
	// Mode names the variant.
	Mode() Mode

	// Execute runs the tool. It never returns an error; failures are
	// reported through Output.
	Execute(ctx context.Context, inv Invocation) Output

	// ParallelSafe reports whether concurrent Execute calls are isolated
	// from each other.
	ParallelSafe() bool
}

// TimeoutMessage is the stderr reported when a run exceeds timeout.
func TimeoutMessage(name string, timeout time.Duration) string {
	return name + " timed out after " + strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64) + "s"
}

// withTimeout derives the run context. A zero timeout leaves ctx unbounded.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// timedOut reports whether runCtx expired on its own deadline.
func timedOut(runCtx context.Context) bool {
	return errors.Is(runCtx.Err(), context.DeadlineExceeded)
}

// toolArgs builds "<target> --json - [--solc-remaps <joined>]".
func toolArgs(target string, remaps []prep.Remap) []string {
	args := []string{target, "--json", "-"}
	if len(remaps) > 0 {
		args = append(args, "--solc-remaps", prep.JoinRemaps(remaps))
	}
	return args
}

// finish converts a runner result into an Output.
func finish(stdout, stderr string, exitCode int, err error) Output {
	if err != nil && stderr == "" {
		stderr = err.Error()
	}
	return Output{
		Success: err == nil && exitCode == 0,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}
