package tool

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/backend"
	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/contract"
	sieveerrors "github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/prep"
)

// slitherDisplayName prefixes user-facing failure messages.
const slitherDisplayName = "Slither"

// Slither runs the Slither static analyzer on Solidity sources.
//
// Run prepares the artifact before execution: project exports are
// extracted, dependency remaps resolved, the main contract chosen and the
// compiler version selected. A malformed export degrades to analyzing the
// original file.
type Slither struct {
	backend       backend.Backend
	prober        *backend.Prober
	versions      *prep.VersionSelector
	mainFile      prep.MainFileSelector
	extraRemaps   []prep.Remap
	timeout       time.Duration
	tmpDir        string
	keepExtracted bool
	lookPath      LookPathFunc
}

// NewSlither builds the Slither tool. Invalid extra remaps fail with
// ErrInvalidRemap.
func NewSlither(opts Options) (*Slither, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	extra, err := prep.ParseRemaps(cfg.Analysis.ExtraRemaps)
	if err != nil {
		return nil, sieveerrors.Wrap(err, "analysis.extra_remaps")
	}

	be := opts.Backend
	if be == nil {
		be = backend.NewNative(nil, "")
	}
	mainFile := opts.MainFile
	if mainFile == nil {
		mainFile = prep.NewNameScorer()
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	return &Slither{
		backend:       be,
		prober:        opts.Prober,
		versions:      prep.NewVersionSelector(cfg.Solc, opts.Scan),
		mainFile:      mainFile,
		extraRemaps:   extra,
		timeout:       cfg.Analysis.Timeout,
		tmpDir:        cfg.Paths.TmpDir,
		keepExtracted: cfg.Analysis.KeepExtracted,
		lookPath:      lookPath,
	}, nil
}

// Kind implements Tool.
func (s *Slither) Kind() Kind { return KindSlither }

// Name implements Tool.
func (s *Slither) Name() string { return string(KindSlither) }

// Languages implements Tool.
func (s *Slither) Languages() []contract.Language {
	return []contract.Language{contract.LanguageSolidity}
}

// ParallelSafe implements Tool.
func (s *Slither) ParallelSafe() bool { return s.backend.ParallelSafe() }

// Available implements Tool. With the container backend the image must be
// ready; natively the slither executable must be on PATH.
func (s *Slither) Available(ctx context.Context) bool {
	if s.backend.Mode() == backend.ModeContainer && s.prober != nil {
		return s.prober.Ready(ctx)
	}
	_, err := s.lookPath(constants.ToolSlither)
	return err == nil
}

// Run implements Tool.
func (s *Slither) Run(ctx context.Context, art *contract.Artifact) (bool, string, string) {
	log := zerolog.Ctx(ctx).With().Str("tool", s.Name()).Str("contract", art.Name()).Logger()
	ctx = log.WithContext(ctx)

	inv, cleanup, err := s.prepare(ctx, art)
	defer cleanup()
	if err != nil {
		log.Error().Err(err).Msg("Slither execution failed")
		return false, "", slitherDisplayName + " execution failed: " + err.Error()
	}

	out := s.backend.Execute(ctx, inv)
	return out.Success, out.Stdout, out.Stderr
}

// prepare runs the preprocessing chain and returns the invocation plus a
// cleanup for any extracted directory.
func (s *Slither) prepare(ctx context.Context, art *contract.Artifact) (backend.Invocation, func(), error) {
	log := zerolog.Ctx(ctx)
	cleanup := func() {}

	inv := backend.Invocation{
		Executable:  constants.ToolSlither,
		DisplayName: slitherDisplayName,
		Target:      art.Path(),
		Timeout:     s.timeout,
	}

	if prep.IsProjectBlob(art.Path()) {
		log.Info().Msg("detected project export, extracting sources")

		dir, err := prep.Extract(ctx, art.Path(), s.destination())
		switch {
		case errors.Is(err, sieveerrors.ErrMalformedProject):
			log.Warn().Err(err).Msg("could not read project export, analyzing the file as source")
		case err != nil:
			return inv, cleanup, err
		default:
			if !s.keepExtracted {
				cleanup = func() { _ = os.RemoveAll(dir) }
			}
			inv.Root = dir
			inv.Remaps = prep.ResolveRemaps(dir)
			inv.Target = s.mainFile.SelectMain(dir, art.Name())

			if len(inv.Remaps) > 0 {
				log.Info().Int("count", len(inv.Remaps)).Msg("resolved remaps")
			}
			if inv.Target == dir {
				log.Warn().Str("dir", dir).Msg("no Solidity files extracted, analyzing the directory")
			} else {
				log.Info().Str("main", inv.Target).Msg("selected main contract")
			}
		}
	}

	sel := s.versions.Select(prep.SolFiles(inv.Target))
	inv.Version = sel.Version
	inv.Remaps = append(inv.Remaps, s.extraRemaps...)

	log.Info().
		Str("version", sel.Version).
		Str("rule", string(sel.Rule)).
		Msg("selected compiler")

	return inv, cleanup, ctx.Err()
}

// destination extracts into the workspace temp root when the container
// backend needs to mount the result.
func (s *Slither) destination() prep.Destination {
	if s.backend.Mode() == backend.ModeContainer {
		return prep.WorkspaceDestination(s.tmpDir)
	}
	return prep.TempDestination()
}

// Ensure Slither implements Tool.
var _ Tool = (*Slither)(nil)
