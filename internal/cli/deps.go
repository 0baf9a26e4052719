package cli

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/backend"
	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/tool"
)

// runtimeDeps are the process-level collaborators commands are built from.
// Tests replace them to keep commands away from the real toolchain.
type runtimeDeps struct {
	loadConfig func(ctx context.Context, overrides *config.Config) (*config.Config, error)
	initLogger func(verbose, quiet bool) zerolog.Logger
	runner     backend.CommandRunner
	lookPath   tool.LookPathFunc
	detector   config.ToolDetector

	// goos resolves container auto mode; empty means the running platform.
	goos string
}

func defaultDeps() *runtimeDeps {
	return &runtimeDeps{
		loadConfig: config.LoadWithOverrides,
		initLogger: InitLogger,
		runner:     &backend.DefaultCommandRunner{},
		lookPath:   exec.LookPath,
		detector:   config.NewToolDetector(),
	}
}
