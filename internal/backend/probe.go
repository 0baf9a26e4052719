package backend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/constants"
	sieveerrors "github.com/mrz1836/sieve/internal/errors"
)

// Prober checks that the container runtime and analysis image are usable.
// A successful Ensure is remembered for the Prober's lifetime.
type Prober struct {
	runner       CommandRunner
	image        string
	probeTimeout time.Duration
	pullTimeout  time.Duration

	mu    sync.Mutex
	ready bool
}

// NewProber returns a Prober for cfg.Image.
func NewProber(runner CommandRunner, cfg config.ContainerConfig) *Prober {
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	p := &Prober{
		runner:       runner,
		image:        cfg.Image,
		probeTimeout: cfg.ProbeTimeout,
		pullTimeout:  cfg.PullTimeout,
	}
	if p.probeTimeout <= 0 {
		p.probeTimeout = constants.DefaultProbeTimeout
	}
	if p.pullTimeout <= 0 {
		p.pullTimeout = constants.DefaultPullTimeout
	}
	return p
}

// DaemonReachable reports whether "docker info" succeeds.
func (p *Prober) DaemonReachable(ctx context.Context) bool {
	runCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()
	_, _, code, err := p.runner.Run(runCtx, "", constants.ToolDocker, "info")
	return err == nil && code == 0
}

// ImagePresent reports whether the image exists locally.
func (p *Prober) ImagePresent(ctx context.Context) bool {
	runCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()
	stdout, _, code, err := p.runner.Run(runCtx, "", constants.ToolDocker, "images", "-q", p.image)
	return err == nil && code == 0 && strings.TrimSpace(stdout) != ""
}

// Pull fetches the image.
func (p *Prober) Pull(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, p.pullTimeout)
	defer cancel()
	_, stderr, code, err := p.runner.Run(runCtx, "", constants.ToolDocker, "pull", p.image)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return sieveerrors.Wrapf(sieveerrors.ErrExecutionTimeout, "pull %s", p.image)
	}
	if err != nil || code != 0 {
		return sieveerrors.Wrapf(sieveerrors.ErrCommandFailed, "pull %s: %s", p.image, strings.TrimSpace(stderr))
	}
	return nil
}

// Ensure makes the container backend usable, pulling the image when it is
// missing. Failures wrap ErrBackendUnavailable.
func (p *Prober) Ensure(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		return nil
	}

	log := zerolog.Ctx(ctx)

	if !p.DaemonReachable(ctx) {
		return sieveerrors.Wrap(sieveerrors.ErrBackendUnavailable, "docker daemon not reachable")
	}
	if !p.ImagePresent(ctx) {
		log.Info().Str("image", p.image).Msg("pulling analysis image")
		if err := p.Pull(ctx); err != nil {
			return sieveerrors.Wrapf(sieveerrors.ErrBackendUnavailable, "image %s: %v", p.image, err)
		}
	}

	p.ready = true
	return nil
}

// Ready reports whether a previous Ensure succeeded, running it otherwise.
func (p *Prober) Ready(ctx context.Context) bool {
	return p.Ensure(ctx) == nil
}
