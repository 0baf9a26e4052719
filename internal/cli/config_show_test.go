package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShow_YAMLRedactsCredentials(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t.TempDir())
	cfg.Store.Mirror.Enabled = true
	cfg.Store.Mirror.Endpoint = "minio.local:9000"
	cfg.Store.Mirror.Bucket = "sieve-results"
	cfg.Store.Mirror.AccessKey = "AKIAEXAMPLEKEY"
	cfg.Store.Mirror.SecretKey = "very-secret-value"

	out, err := runCLI(t, testDeps(cfg, newFakeToolchain()), "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "sources:")
	assert.Contains(t, out, "project: .sieve/config.yaml")
	assert.Contains(t, out, "bucket: sieve-results")
	assert.Contains(t, out, "timeout: 10m0s")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "very-secret-value")
	assert.NotContains(t, out, "AKIAEXAMPLEKEY")
}

func TestConfigShow_JSON(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, testDeps(testConfig(t.TempDir()), newFakeToolchain()), "config", "show", "-o", "json")
	require.NoError(t, err)

	var report ConfigShowReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "off", report.Config.Container.Mode)
	assert.Equal(t, []string{"slither"}, report.Config.Analysis.Tools)
}
