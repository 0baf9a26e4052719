package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/parser"
	"github.com/mrz1836/sieve/internal/store"
)

func seedRaw(t *testing.T, cfg *config.Config, contract, stdout string) {
	t.Helper()
	st := store.NewFileStore(cfg.Paths.RawRoot(), cfg.Paths.ParsedRoot())
	path := st.RawPath(contract, "slither")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(stdout), 0o600))
}

func seedRecord(t *testing.T, cfg *config.Config, contract, stdout string) {
	t.Helper()
	logger := zerolog.Nop()
	ctx := logger.WithContext(context.Background())
	st := store.NewFileStore(cfg.Paths.RawRoot(), cfg.Paths.ParsedRoot())
	require.NoError(t, st.SaveRecord(ctx, &store.Record{
		Contract:      contract,
		Tool:          "slither",
		ExecutionTime: 1.25,
		Analysis:      parser.SlitherReducer{}.Parse(stdout, ""),
	}))
}

func TestReparse_RewritesRecords(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t.TempDir())
	seedRaw(t, cfg, "Token", slitherStdout)
	seedRaw(t, cfg, "Garbage", "{not json")

	out, err := runCLI(t, testDeps(cfg, newFakeToolchain()), "reparse", "-o", "json")
	require.NoError(t, err)

	var summary []ReparseSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary, 2)
	assert.Equal(t, "Garbage", summary[0].Contract)
	assert.Contains(t, summary[0].Error, "Invalid JSON")
	assert.Equal(t, "Token", summary[1].Contract)
	assert.Equal(t, 2, summary[1].Findings)

	st := store.NewFileStore(cfg.Paths.RawRoot(), cfg.Paths.ParsedRoot())
	assert.FileExists(t, st.ParsedPath("Token", "slither"))
}

func TestReparse_TextWithNothingStored(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t.TempDir())

	out, err := runCLI(t, testDeps(cfg, newFakeToolchain()), "reparse")
	require.NoError(t, err)
	assert.Contains(t, out, "no raw slither output")
}

func TestReparse_UnknownTool(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, testDeps(testConfig(t.TempDir()), newFakeToolchain()), "reparse", "--tool", "mythril")
	require.ErrorIs(t, err, errors.ErrUnknownTool)
	assert.Equal(t, ExitError, ExitCodeForError(err))
}

func TestStats_JSON(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t.TempDir())
	seedRecord(t, cfg, "Token", slitherStdout)
	seedRecord(t, cfg, "Vault", slitherStdout)

	out, err := runCLI(t, testDeps(cfg, newFakeToolchain()), "stats", "-o", "json", "--top", "1")
	require.NoError(t, err)

	var stats store.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Contracts)
	assert.Equal(t, 4, stats.TotalFindings)
	assert.InDelta(t, 2.0, stats.Average, 0.001)
	require.Len(t, stats.TopChecks, 1)
	assert.Equal(t, "reentrancy-eth", stats.TopChecks[0].Name)
	require.Len(t, stats.PerContract, 2)
}

func TestStats_TextAndCSV(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := testConfig(root)
	seedRecord(t, cfg, "Token", slitherStdout)
	csvDir := filepath.Join(root, "reports")

	out, err := runCLI(t, testDeps(cfg, newFakeToolchain()), "stats", "--csv", csvDir)
	require.NoError(t, err)

	assert.Contains(t, out, "1 contracts, 2 findings, 2.00 per contract")
	assert.Contains(t, out, "reentrancy-eth")
	assert.Contains(t, out, "Informational")
	assert.Contains(t, out, "wrote ")
	assert.FileExists(t, filepath.Join(csvDir, store.SeverityCSV))
	assert.FileExists(t, filepath.Join(csvDir, store.CheckCSV))
	assert.FileExists(t, filepath.Join(csvDir, store.PerContractCSV))
}

func TestStats_Empty(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, testDeps(testConfig(t.TempDir()), newFakeToolchain()), "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "no normalized slither reports")
}

func TestStats_ResultsDirOverride(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	other := testConfig(filepath.Join(root, "other"))
	seedRecord(t, other, "Token", slitherStdout)

	out, err := runCLI(t, testDeps(testConfig(root), newFakeToolchain()),
		"stats", "-o", "yaml", "--results-dir", other.Paths.ResultsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "contracts: 1")
}
