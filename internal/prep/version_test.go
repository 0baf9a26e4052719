package prep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sieve/internal/config"
)

func newSelector() *VersionSelector {
	return NewVersionSelector(config.DefaultConfig().Solc, nil)
}

func TestSelectPragmas(t *testing.T) {
	tests := []struct {
		name    string
		pragmas []string
		want    Selection
	}{
		{"caret modern", []string{"^0.8.12"}, Selection{"0.8.24", RuleCaretModern}},
		{"caret modern no patch", []string{"^0.8"}, Selection{"0.8.24", RuleCaretModern}},
		{"caret above floor minor", []string{"^0.9.1"}, Selection{"0.8.24", RuleCaretModern}},
		{"exact", []string{"0.7.6"}, Selection{"0.7.6", RuleExactHighest}},
		{"exact highest numeric", []string{"0.6.12", "0.6.9", "0.4.26"}, Selection{"0.6.12", RuleExactHighest}},
		{"caret below floor then exact", []string{"^0.6.0", "0.5.17"}, Selection{"0.5.17", RuleExactHighest}},
		{"caret below floor only", []string{"^0.7.0"}, Selection{"0.8.24", RuleDefault}},
		{"open lower bound", []string{">=0.6.11"}, Selection{"0.8.24", RuleOpenLowerBound}},
		{"range", []string{">=0.4.22 <0.6.0"}, Selection{"0.8.24", RuleOpenLowerBound}},
		{"strict greater", []string{">0.7.0"}, Selection{"0.8.24", RuleOpenLowerBound}},
		{"lower bound beats exact", []string{"0.5.0", ">=0.6.0"}, Selection{"0.8.24", RuleOpenLowerBound}},
		{"tilde is not exact", []string{"~0.5.0"}, Selection{"0.8.24", RuleDefault}},
		{"none", nil, Selection{"0.8.24", RuleDefault}},
	}

	s := newSelector()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.SelectPragmas(tc.pragmas))
		})
	}
}

func TestSelect_LegacyOverridesPragmas(t *testing.T) {
	dir := t.TempDir()
	modern := writeFile(t, dir, "Modern.sol", "pragma solidity ^0.8.20;\ncontract M {}")
	legacy := writeFile(t, dir, "Old.sol", "contract O { function kill() { suicide(owner); } }")

	got := newSelector().Select([]string{modern, legacy})
	assert.Equal(t, Selection{Version: "0.4.9", Rule: RuleLegacySyntax}, got)
}

func TestSelect_LegacyMarkers(t *testing.T) {
	for _, marker := range config.DefaultLegacyMarkers() {
		t.Run(marker, func(t *testing.T) {
			f := writeFile(t, t.TempDir(), "A.sol", "pragma solidity 0.4.24;\ncontract A { x"+marker+" }")
			assert.Equal(t, RuleLegacySyntax, newSelector().Select([]string{f}).Rule)
		})
	}
}

func TestSelect_FromFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "A.sol", "// SPDX\n  pragma solidity 0.7.6;\ncontract A {}")
	b := writeFile(t, dir, "B.sol", "PRAGMA SOLIDITY 0.7.4;\ncontract B {}")

	got := newSelector().Select([]string{a, b, filepath.Join(dir, "missing.sol")})
	assert.Equal(t, Selection{Version: "0.7.6", Rule: RuleExactHighest}, got)
}

func TestSelect_ConfiguredDefaults(t *testing.T) {
	cfg := config.DefaultConfig().Solc
	cfg.ModernDefault = "0.8.27"
	cfg.ModernFloor = "0.7"
	s := NewVersionSelector(cfg, nil)

	assert.Equal(t, Selection{"0.8.27", RuleCaretModern}, s.SelectPragmas([]string{"^0.7.1"}))
	assert.Equal(t, Selection{"0.8.27", RuleDefault}, s.SelectPragmas(nil))
}

func TestCompareTriples(t *testing.T) {
	assert.Equal(t, 1, compareTriples("0.10.0", "0.9.9"))
	assert.Equal(t, -1, compareTriples("0.4.9", "0.4.24"))
	assert.Equal(t, 0, compareTriples("0.8.24", "0.8.24"))
}

func TestScanCache(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "A.sol", "pragma solidity ^0.8.0;\npragma solidity >=0.7.0;\ncontract A {}")

	c := NewScanCache(4, config.DefaultLegacyMarkers())

	scan, err := c.Scan(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"^0.8.0", ">=0.7.0"}, scan.Pragmas)
	assert.False(t, scan.Legacy)
	assert.Equal(t, 1, c.Len())

	_, err = c.Scan(f)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len(), "unchanged file hits the cache")

	require.NoError(t, os.WriteFile(f, []byte("contract A { function() { throw; } }"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(f, later, later))

	scan, err = c.Scan(f)
	require.NoError(t, err)
	assert.Empty(t, scan.Pragmas)
	assert.True(t, scan.Legacy)

	_, err = c.Scan(filepath.Join(dir, "missing.sol"))
	require.Error(t, err)
}

func TestScanCache_Eviction(t *testing.T) {
	dir := t.TempDir()
	c := NewScanCache(2, nil)
	for _, name := range []string{"A.sol", "B.sol", "C.sol"} {
		_, err := c.Scan(writeFile(t, dir, name, "contract X {}"))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestGatherPragmas(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "A.sol", "pragma solidity ^0.8.0;")
	b := writeFile(t, dir, "B.sol", "contract B {}")
	c := writeFile(t, dir, "C.sol", "pragma solidity 0.6.12;")

	cache := NewScanCache(0, nil)
	assert.Equal(t, []string{"^0.8.0", "0.6.12"}, cache.GatherPragmas([]string{a, b, c, filepath.Join(dir, "nope.sol")}))
}
