package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHelpListsCommands(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, testDeps(testConfig(t.TempDir()), newFakeToolchain()))
	require.NoError(t, err)

	assert.Contains(t, out, "sieve runs static analysis tools")
	for _, name := range []string{"analyze", "reparse", "stats", "tools", "solc", "config"} {
		assert.Contains(t, out, name)
	}
}

func TestRootVersion(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"},
		testDeps(testConfig(t.TempDir()), newFakeToolchain()))
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "1.2.3 (commit: abc123, built: 2026-01-02)")
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "0.1.0 (commit: deadbeef, built: today)",
		formatVersion(BuildInfo{Version: "0.1.0", Commit: "deadbeef", Date: "today"}))
}

func TestCommandContextCarriesLogger(t *testing.T) {
	t.Parallel()

	ctx := commandContext(context.Background())
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		logger := GetLogger()
		logger.Debug().Msg("noop")
	})
}
