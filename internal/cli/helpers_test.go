package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sieve/internal/config"
)

const slitherStdout = `{
  "success": true,
  "error": null,
  "results": {
    "detectors": [
      {
        "check": "reentrancy-eth",
        "impact": "High",
        "confidence": "Medium",
        "description": "Reentrancy in Token.withdraw()",
        "first_markdown_element": "Token.sol#L5",
        "elements": [{"source_mapping": {"lines": [5, 6]}}]
      },
      {
        "check": "solc-version",
        "impact": "Informational",
        "confidence": "High",
        "description": "Pragma version too recent",
        "first_markdown_element": "Token.sol#L1",
        "elements": []
      }
    ]
  }
}`

// fakeToolchain answers slither, solc-select and docker invocations.
// Docker is never reachable.
type fakeToolchain struct {
	mu          sync.Mutex
	calls       []string
	slitherOut  string
	slitherCode int
	versions    string
	failInstall map[string]bool
}

func newFakeToolchain() *fakeToolchain {
	return &fakeToolchain{slitherOut: slitherStdout, failInstall: map[string]bool{}}
}

func (f *fakeToolchain) Run(_ context.Context, _, name string, args ...string) (string, string, int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	f.mu.Unlock()

	switch name {
	case "slither":
		return f.slitherOut, "", f.slitherCode, nil
	case "solc-select":
		if len(args) > 1 && args[0] == "install" && f.failInstall[args[1]] {
			return "", "no such release", 1, nil
		}
		if len(args) > 0 && args[0] == "versions" {
			return f.versions, "", 0, nil
		}
		return "", "", 0, nil
	default:
		return "", "Cannot connect to the Docker daemon", 1, nil
	}
}

func (f *fakeToolchain) callsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

type fakeDetector struct {
	result *config.ToolDetectionResult
	err    error
}

func (d fakeDetector) Detect(context.Context) (*config.ToolDetectionResult, error) {
	return d.result, d.err
}

// testConfig keeps every path inside root and turns the container off.
func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Paths.ResultsDir = filepath.Join(root, "results")
	cfg.Paths.TmpDir = filepath.Join(root, "tmp")
	cfg.Paths.DatasetDir = filepath.Join(root, "dataset")
	cfg.Container.Mode = config.ContainerModeOff
	return cfg
}

// fakeLoad applies the overrides the commands produce on top of base.
func fakeLoad(base *config.Config) func(context.Context, *config.Config) (*config.Config, error) {
	return func(_ context.Context, o *config.Config) (*config.Config, error) {
		cfg := *base
		if o != nil {
			if o.Analysis.Timeout != 0 {
				cfg.Analysis.Timeout = o.Analysis.Timeout
			}
			if o.Analysis.Workers != 0 {
				cfg.Analysis.Workers = o.Analysis.Workers
			}
			if len(o.Analysis.ExtraRemaps) > 0 {
				cfg.Analysis.ExtraRemaps = o.Analysis.ExtraRemaps
			}
			if o.Container.Mode != "" {
				cfg.Container.Mode = o.Container.Mode
			}
			if o.Paths.ResultsDir != "" {
				cfg.Paths.ResultsDir = o.Paths.ResultsDir
			}
		}
		if err := config.Validate(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
}

func testDeps(cfg *config.Config, runner *fakeToolchain) *runtimeDeps {
	return &runtimeDeps{
		loadConfig: fakeLoad(cfg),
		initLogger: func(bool, bool) zerolog.Logger { return zerolog.Nop() },
		runner:     runner,
		lookPath:   func(file string) (string, error) { return "/usr/local/bin/" + file, nil },
		detector:   fakeDetector{result: &config.ToolDetectionResult{}},
		goos:       "linux",
	}
}

// runCLI executes the root command with args and returns its combined output.
func runCLI(t *testing.T, deps *runtimeDeps, args ...string) (string, error) {
	t.Helper()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"}, deps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeContract(t *testing.T, dir, name, source string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o600))
	return path
}

const tokenSource = "pragma solidity ^0.8.0;\n\ncontract Token {\n    function withdraw() public {}\n}\n"
