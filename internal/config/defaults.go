package config

import "github.com/mrz1836/sieve/internal/constants"

// DefaultLegacyMarkers are tokens removed from the language in 0.5.0.
func DefaultLegacyMarkers() []string {
	return []string{" throw;", "sha3(", "suicide(", "function()"}
}

// DefaultInstallVersions is one representative compiler per language era.
func DefaultInstallVersions() []string {
	return []string{
		"0.4.26", "0.5.17", "0.6.12", "0.7.6",
		"0.8.0", "0.8.3", "0.8.4", "0.8.6", "0.8.9", "0.8.13",
		"0.8.19", "0.8.20", "0.8.24", "0.8.26", "0.8.27",
	}
}

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Timeout: constants.DefaultToolTimeout,
			Tools:   []string{constants.ToolSlither},
			Workers: 1,
		},
		Solc: SolcConfig{
			ModernDefault:   constants.DefaultModernSolc,
			ModernFloor:     constants.DefaultModernFloor,
			LegacyVersion:   constants.DefaultLegacySolc,
			LegacyMarkers:   DefaultLegacyMarkers(),
			InstallVersions: DefaultInstallVersions(),
		},
		Container: ContainerConfig{
			// Auto turns the container on for darwin, where native solc
			// builds are unreliable across CPU architectures.
			Mode:         ContainerModeAuto,
			Image:        constants.DefaultImage,
			MountPoint:   constants.DefaultMountPoint,
			PullTimeout:  constants.DefaultPullTimeout,
			ProbeTimeout: constants.DefaultProbeTimeout,
		},
		Paths: PathsConfig{
			ResultsDir: constants.ResultsDir,
			TmpDir:     constants.TmpDir,
			DatasetDir: constants.DatasetDir,
		},
	}
}
