package backend

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/flock"
)

// switchTimeout bounds a single solc-select call.
const switchTimeout = 2 * time.Minute

// Native runs the tool as a local process against the host toolchain.
//
// The active compiler version is host-wide state. Execute holds an
// in-process mutex plus an advisory file lock from the version switch until
// the tool exits, so runs from this and other sieve processes never observe
// each other's version. Native runs are therefore never parallel.
type Native struct {
	runner   CommandRunner
	lockPath string
	mu       sync.Mutex
}

// NewNative returns a native backend. An empty lockPath disables the
// cross-process lock.
func NewNative(runner CommandRunner, lockPath string) *Native {
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	return &Native{runner: runner, lockPath: lockPath}
}

// Mode implements Backend.
func (n *Native) Mode() Mode { return ModeNative }

// ParallelSafe implements Backend.
func (n *Native) ParallelSafe() bool { return false }

// SwitchVersion activates version with solc-select. The returned status is
// informational: callers proceed either way and let the tool's own exit
// status surface an unusable compiler.
func (n *Native) SwitchVersion(ctx context.Context, version string) error {
	runCtx, cancel := context.WithTimeout(ctx, switchTimeout)
	defer cancel()

	_, stderr, code, err := n.runner.Run(runCtx, "", constants.ToolSolcSelect, "use", version)
	if err != nil {
		return errors.Wrapf(errors.ErrCommandFailed, "solc-select use %s: %v %s", version, err, stderr)
	}
	if code != 0 {
		return errors.Wrapf(errors.ErrCommandFailed, "solc-select use %s: exit code %d", version, code)
	}
	return nil
}

// Execute implements Backend.
func (n *Native) Execute(ctx context.Context, inv Invocation) Output {
	log := zerolog.Ctx(ctx)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.lockPath != "" {
		lock, err := flock.Acquire(ctx, n.lockPath)
		if err != nil {
			return Output{Stderr: "acquire toolchain lock: " + err.Error()}
		}
		defer func() { _ = lock.Release() }()
	}

	if err := n.SwitchVersion(ctx, inv.Version); err != nil {
		log.Warn().Err(err).Str("version", inv.Version).Msg("compiler switch failed, continuing")
	}

	runCtx, cancel := withTimeout(ctx, inv.Timeout)
	defer cancel()

	log.Debug().
		Str("tool", inv.Executable).
		Str("target", inv.Target).
		Str("version", inv.Version).
		Int("remaps", len(inv.Remaps)).
		Msg("running native analysis")

	stdout, stderr, code, err := n.runner.Run(runCtx, "", inv.Executable, toolArgs(inv.Target, inv.Remaps)...)
	if timedOut(runCtx) {
		return Output{Stderr: TimeoutMessage(inv.DisplayName, inv.Timeout)}
	}
	return finish(stdout, stderr, code, err)
}

// Ensure Native implements Backend.
var _ Backend = (*Native)(nil)
