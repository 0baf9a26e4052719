package backend

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/prep"
)

func slitherInvocation(target string) Invocation {
	return Invocation{
		Executable:  "slither",
		DisplayName: "Slither",
		Target:      target,
		Version:     "0.8.24",
		Timeout:     time.Minute,
	}
}

func TestNative_Execute(t *testing.T) {
	runner := newMockRunner().
		on("solc-select use", response{}).
		on("slither /work/Vault.sol", response{stdout: `{"success":true}`, stderr: "compiled"})

	n := NewNative(runner, filepath.Join(t.TempDir(), "solc-select.lock"))
	inv := slitherInvocation("/work/Vault.sol")
	inv.Remaps = []prep.Remap{{Alias: "src/", Dir: "/work/src/"}, {Alias: "solmate", Dir: "/work/lib/solmate"}}

	out := n.Execute(testCtx(), inv)

	assert.True(t, out.Success)
	assert.JSONEq(t, `{"success":true}`, out.Stdout)
	assert.Equal(t, "compiled", out.Stderr)

	switches := runner.callsTo("solc-select use 0.8.24")
	require.Len(t, switches, 1)

	runs := runner.callsTo("slither")
	require.Len(t, runs, 1)
	assert.Equal(t, []string{
		"/work/Vault.sol", "--json", "-",
		"--solc-remaps", "src/=/work/src/ solmate=/work/lib/solmate",
	}, runs[0].args)
}

func TestNative_NoRemapsOmitsFlag(t *testing.T) {
	runner := newMockRunner().
		on("solc-select use", response{}).
		on("slither /work/A.sol", response{stdout: "{}"})

	NewNative(runner, "").Execute(testCtx(), slitherInvocation("/work/A.sol"))

	runs := runner.callsTo("slither")
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"/work/A.sol", "--json", "-"}, runs[0].args)
}

func TestNative_SwitchFailureIsNotFatal(t *testing.T) {
	runner := newMockRunner().
		on("solc-select use", response{stderr: "not installed", exitCode: 1, err: errors.ErrCommandFailed}).
		on("slither /work/A.sol", response{stdout: "{}"})

	n := NewNative(runner, "")
	require.ErrorIs(t, n.SwitchVersion(testCtx(), "0.4.9"), errors.ErrCommandFailed)

	out := n.Execute(testCtx(), slitherInvocation("/work/A.sol"))
	assert.True(t, out.Success)
}

func TestNative_NonZeroExit(t *testing.T) {
	runner := newMockRunner().
		on("solc-select use", response{}).
		on("slither /work/A.sol", response{stdout: `{"success":false}`, stderr: "compile error", exitCode: 255, err: errors.ErrCommandFailed})

	out := NewNative(runner, "").Execute(testCtx(), slitherInvocation("/work/A.sol"))

	assert.False(t, out.Success)
	assert.Equal(t, `{"success":false}`, out.Stdout)
	assert.Equal(t, "compile error", out.Stderr)
}

func TestNative_LaunchFailureFillsStderr(t *testing.T) {
	runner := newMockRunner().on("solc-select use", response{})

	out := NewNative(runner, "").Execute(testCtx(), slitherInvocation("/work/A.sol"))

	assert.False(t, out.Success)
	assert.Contains(t, out.Stderr, errors.ErrCommandNotConfigured.Error())
}

func TestNative_Timeout(t *testing.T) {
	runner := newMockRunner().
		on("solc-select use", response{}).
		on("slither /work/A.sol", response{block: true})

	inv := slitherInvocation("/work/A.sol")
	inv.Timeout = 50 * time.Millisecond

	out := NewNative(runner, "").Execute(testCtx(), inv)

	assert.False(t, out.Success)
	assert.Empty(t, out.Stdout)
	assert.Equal(t, "Slither timed out after 0.05s", out.Stderr)
}

func TestNative_ModeAndParallelSafety(t *testing.T) {
	n := NewNative(nil, "")
	assert.Equal(t, ModeNative, n.Mode())
	assert.False(t, n.ParallelSafe())
}

func TestTimeoutMessage(t *testing.T) {
	assert.Equal(t, "Slither timed out after 600s", TimeoutMessage("Slither", 600*time.Second))
	assert.Equal(t, "Slither timed out after 1.5s", TimeoutMessage("Slither", 1500*time.Millisecond))
}
