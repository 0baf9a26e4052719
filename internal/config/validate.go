package config

import (
	"regexp"
	"slices"

	"github.com/mrz1836/sieve/internal/errors"
)

// solcVersionRe matches a full major.minor.patch compiler version.
var solcVersionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`) //nolint:gochecknoglobals // compiled once

// majorMinorRe matches a major.minor floor.
var majorMinorRe = regexp.MustCompile(`^\d+\.\d+$`) //nolint:gochecknoglobals // compiled once

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - analysis timeout must be positive, workers at least 1, tools non-empty
//   - solc versions must be major.minor.patch, the floor major.minor
//   - container mode must be auto, on or off and the image non-empty
//   - results and tmp directories must be set
//   - an enabled mirror needs endpoint, bucket and both keys
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateAnalysisConfig(&cfg.Analysis); err != nil {
		return err
	}

	if err := validateSolcConfig(&cfg.Solc); err != nil {
		return err
	}

	if err := validateContainerConfig(&cfg.Container); err != nil {
		return err
	}

	if err := validatePathsConfig(&cfg.Paths); err != nil {
		return err
	}

	return validateStoreConfig(&cfg.Store)
}

func validateAnalysisConfig(cfg *AnalysisConfig) error {
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidAnalysis,
			"analysis.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.Workers < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidAnalysis,
			"analysis.workers must be at least 1, got %d", cfg.Workers)
	}
	if len(cfg.Tools) == 0 {
		return errors.Wrap(errors.ErrConfigInvalidAnalysis,
			"analysis.tools must not be empty")
	}
	return nil
}

func validateSolcConfig(cfg *SolcConfig) error {
	for key, version := range map[string]string{
		"solc.modern_default": cfg.ModernDefault,
		"solc.legacy_version": cfg.LegacyVersion,
	} {
		if !solcVersionRe.MatchString(version) {
			return errors.Wrapf(errors.ErrConfigInvalidSolc,
				"%s must look like 0.8.24, got %q", key, version)
		}
	}
	if !majorMinorRe.MatchString(cfg.ModernFloor) {
		return errors.Wrapf(errors.ErrConfigInvalidSolc,
			"solc.modern_floor must look like 0.8, got %q", cfg.ModernFloor)
	}
	for _, v := range cfg.InstallVersions {
		if !solcVersionRe.MatchString(v) {
			return errors.Wrapf(errors.ErrConfigInvalidSolc,
				"solc.install_versions entry %q is not a version", v)
		}
	}
	return nil
}

func validateContainerConfig(cfg *ContainerConfig) error {
	if !slices.Contains([]string{ContainerModeAuto, ContainerModeOn, ContainerModeOff}, cfg.Mode) {
		return errors.Wrapf(errors.ErrConfigInvalidContainer,
			"container.mode must be auto, on or off, got %q", cfg.Mode)
	}
	if cfg.Image == "" {
		return errors.Wrap(errors.ErrConfigInvalidContainer, "container.image must not be empty")
	}
	if cfg.MountPoint == "" || cfg.MountPoint[0] != '/' {
		return errors.Wrapf(errors.ErrConfigInvalidContainer,
			"container.mount_point must be absolute, got %q", cfg.MountPoint)
	}
	if cfg.PullTimeout <= 0 || cfg.ProbeTimeout <= 0 {
		return errors.Wrap(errors.ErrConfigInvalidContainer,
			"container.pull_timeout and container.probe_timeout must be positive")
	}
	return nil
}

func validatePathsConfig(cfg *PathsConfig) error {
	if cfg.ResultsDir == "" {
		return errors.Wrap(errors.ErrConfigInvalidPaths, "paths.results_dir must not be empty")
	}
	if cfg.TmpDir == "" {
		return errors.Wrap(errors.ErrConfigInvalidPaths, "paths.tmp_dir must not be empty")
	}
	return nil
}

func validateStoreConfig(cfg *StoreConfig) error {
	m := cfg.Mirror
	if !m.Enabled {
		return nil
	}
	if m.Endpoint == "" || m.Bucket == "" {
		return errors.Wrap(errors.ErrConfigInvalidStore,
			"store.mirror.endpoint and store.mirror.bucket are required when the mirror is enabled")
	}
	if m.AccessKey == "" || m.SecretKey == "" {
		return errors.Wrap(errors.ErrConfigInvalidStore,
			"store.mirror.access_key and store.mirror.secret_key are required when the mirror is enabled")
	}
	return nil
}
