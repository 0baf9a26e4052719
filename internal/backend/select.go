package backend

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/errors"
)

// SelectOptions configures Select.
type SelectOptions struct {
	// Container is the container section; its Mode decides the preference.
	Container config.ContainerConfig

	// LockPath is the native backend's toolchain lock file.
	LockPath string

	// Runner executes commands. Nil uses DefaultCommandRunner.
	Runner CommandRunner

	// GOOS resolves auto mode. Empty uses the running platform.
	GOOS string
}

// Selected is the outcome of Select.
type Selected struct {
	Backend Backend

	// Prober is set when the container backend was chosen.
	Prober *Prober

	// Fallback records why a preferred container backend was replaced.
	Fallback error
}

// Select picks the backend. Container mode is used when forced on, or in
// auto mode on platforms whose native toolchain is unreliable. When the
// container runtime or image is unavailable Select logs a warning and falls
// back to the native backend; it never fails outright.
func Select(ctx context.Context, opts SelectOptions) Selected {
	runner := opts.Runner
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	native := NewNative(runner, opts.LockPath)
	if !opts.Container.Enabled(goos) {
		return Selected{Backend: native}
	}

	prober := NewProber(runner, opts.Container)
	if err := prober.Ensure(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("image", opts.Container.Image).
			Msg("container backend unavailable, falling back to native execution")
		return Selected{Backend: native, Fallback: errors.Wrap(err, "container backend")}
	}

	zerolog.Ctx(ctx).Debug().Str("image", opts.Container.Image).Msg("using container backend")
	return Selected{Backend: NewContainer(runner, opts.Container), Prober: prober}
}
