package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sieve/internal/errors"
)

func TestValidate_NilConfig(t *testing.T) {
	require.ErrorIs(t, Validate(nil), errors.ErrConfigNil)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero timeout", func(c *Config) { c.Analysis.Timeout = 0 }, errors.ErrConfigInvalidAnalysis},
		{"zero workers", func(c *Config) { c.Analysis.Workers = 0 }, errors.ErrConfigInvalidAnalysis},
		{"no tools", func(c *Config) { c.Analysis.Tools = nil }, errors.ErrConfigInvalidAnalysis},
		{"bad modern default", func(c *Config) { c.Solc.ModernDefault = "latest" }, errors.ErrConfigInvalidSolc},
		{"bad floor", func(c *Config) { c.Solc.ModernFloor = "0.8.0" }, errors.ErrConfigInvalidSolc},
		{"bad install version", func(c *Config) { c.Solc.InstallVersions = []string{"0.8"} }, errors.ErrConfigInvalidSolc},
		{"bad mode", func(c *Config) { c.Container.Mode = "maybe" }, errors.ErrConfigInvalidContainer},
		{"empty image", func(c *Config) { c.Container.Image = "" }, errors.ErrConfigInvalidContainer},
		{"relative mount", func(c *Config) { c.Container.MountPoint = "share" }, errors.ErrConfigInvalidContainer},
		{"empty results dir", func(c *Config) { c.Paths.ResultsDir = "" }, errors.ErrConfigInvalidPaths},
		{"empty tmp dir", func(c *Config) { c.Paths.TmpDir = "" }, errors.ErrConfigInvalidPaths},
		{"mirror without bucket", func(c *Config) {
			c.Store.Mirror = MirrorConfig{Enabled: true, Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}
		}, errors.ErrConfigInvalidStore},
		{"mirror without keys", func(c *Config) {
			c.Store.Mirror = MirrorConfig{Enabled: true, Endpoint: "localhost:9000", Bucket: "results"}
		}, errors.ErrConfigInvalidStore},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tc.want)
		})
	}
}

func TestValidate_EnabledMirror(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Mirror = MirrorConfig{
		Enabled:   true,
		Endpoint:  "localhost:9000",
		Bucket:    "results",
		AccessKey: "minio",
		SecretKey: "minio123",
	}
	assert.NoError(t, Validate(cfg))
}
