package backend

import (
	"bufio"
	"context"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/ctxutil"
	"github.com/mrz1836/sieve/internal/errors"
)

// installTimeout bounds downloading one compiler release.
const installTimeout = 5 * time.Minute

// versionLineRe matches the leading version of a "solc-select versions" line.
var versionLineRe = regexp.MustCompile(`^\s*(\d+\.\d+\.\d+)\b`) //nolint:gochecknoglobals // compiled once

// InstallStatus is the outcome of installing one compiler version.
type InstallStatus string

// Install outcomes.
const (
	InstallStatusPresent   InstallStatus = "already installed"
	InstallStatusInstalled InstallStatus = "installed"
	InstallStatusFailed    InstallStatus = "failed"
)

// InstallResult reports one requested version.
type InstallResult struct {
	Version string        `json:"version" yaml:"version"`
	Status  InstallStatus `json:"status" yaml:"status"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// SolcInstaller installs compiler releases into the host toolchain with
// solc-select.
type SolcInstaller struct {
	runner CommandRunner
}

// NewSolcInstaller returns an installer. A nil runner uses DefaultCommandRunner.
func NewSolcInstaller(runner CommandRunner) *SolcInstaller {
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	return &SolcInstaller{runner: runner}
}

// Installed lists the versions solc-select already has.
func (s *SolcInstaller) Installed(ctx context.Context) ([]string, error) {
	runCtx, cancel := context.WithTimeout(ctx, switchTimeout)
	defer cancel()

	stdout, stderr, code, err := s.runner.Run(runCtx, "", constants.ToolSolcSelect, "versions")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCommandFailed, "solc-select versions: %v %s", err, stderr)
	}
	if code != 0 {
		return nil, errors.Wrapf(errors.ErrCommandFailed, "solc-select versions: exit code %d", code)
	}
	return parseInstalledVersions(stdout), nil
}

// Install installs every version not yet present, one at a time. A failed
// version is reported and the remaining ones are still attempted. When the
// installed list cannot be read every version is attempted.
func (s *SolcInstaller) Install(ctx context.Context, versions []string) []InstallResult {
	log := zerolog.Ctx(ctx)

	installed, err := s.Installed(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not check installed compiler versions")
	}

	results := make([]InstallResult, 0, len(versions))
	for _, v := range versions {
		if err := ctxutil.Canceled(ctx); err != nil {
			results = append(results, InstallResult{Version: v, Status: InstallStatusFailed, Error: err.Error()})
			continue
		}
		if slices.Contains(installed, v) {
			log.Debug().Str("version", v).Msg("compiler already installed")
			results = append(results, InstallResult{Version: v, Status: InstallStatusPresent})
			continue
		}

		log.Info().Str("version", v).Msg("installing compiler")
		if err := s.installOne(ctx, v); err != nil {
			log.Warn().Err(err).Str("version", v).Msg("compiler install failed")
			results = append(results, InstallResult{Version: v, Status: InstallStatusFailed, Error: err.Error()})
			continue
		}
		results = append(results, InstallResult{Version: v, Status: InstallStatusInstalled})
	}
	return results
}

func (s *SolcInstaller) installOne(ctx context.Context, version string) error {
	runCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	_, stderr, code, err := s.runner.Run(runCtx, "", constants.ToolSolcSelect, "install", version)
	if err != nil {
		return errors.Wrapf(errors.ErrCommandFailed, "solc-select install %s: %v %s", version, err, strings.TrimSpace(stderr))
	}
	if code != 0 {
		return errors.Wrapf(errors.ErrCommandFailed, "solc-select install %s: exit code %d: %s", version, code, strings.TrimSpace(stderr))
	}
	return nil
}

// Missing returns the requested versions whose install failed.
func Missing(results []InstallResult) []string {
	var out []string
	for _, r := range results {
		if r.Status == InstallStatusFailed {
			out = append(out, r.Version)
		}
	}
	return out
}

func parseInstalledVersions(output string) []string {
	var versions []string
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		if m := versionLineRe.FindStringSubmatch(sc.Text()); m != nil {
			versions = append(versions, m[1])
		}
	}
	return versions
}
