package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/errors"
)

// newViperInstance creates a new Viper instance with standard sieve configuration.
// This includes environment variable prefix (SIEVE_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SIEVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadDotEnv populates the process environment from ./.env.
// Variables already set in the environment win. A missing file is not an error.
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	return nil
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (SIEVE_* prefix, including values from ./.env)
//  2. Project config (.sieve/config.yaml)
//  3. Global config (~/.sieve/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// Missing config files are expected and never an error.
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(constants.EnvFileName); err != nil {
		return nil, err
	}

	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Dur("analysis.timeout", cfg.Analysis.Timeout).
		Strs("analysis.tools", cfg.Analysis.Tools).
		Str("container.mode", cfg.Container.Mode).
		Str("container.image", cfg.Container.Image).
		Bool("store.mirror.enabled", cfg.Store.Mirror.Enabled).
		Msg("configuration loaded")

	return cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.sieve/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil //nolint:nilerr // a missing home directory just means no global config
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load the project config file (.sieve/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("analysis.timeout", d.Analysis.Timeout.String())
	v.SetDefault("analysis.tools", d.Analysis.Tools)
	v.SetDefault("analysis.workers", d.Analysis.Workers)
	v.SetDefault("analysis.extra_remaps", []string{})
	v.SetDefault("analysis.keep_extracted", false)

	v.SetDefault("solc.modern_default", d.Solc.ModernDefault)
	v.SetDefault("solc.modern_floor", d.Solc.ModernFloor)
	v.SetDefault("solc.legacy_version", d.Solc.LegacyVersion)
	v.SetDefault("solc.legacy_markers", d.Solc.LegacyMarkers)
	v.SetDefault("solc.install_versions", d.Solc.InstallVersions)

	v.SetDefault("container.mode", d.Container.Mode)
	v.SetDefault("container.image", d.Container.Image)
	v.SetDefault("container.mount_point", d.Container.MountPoint)
	v.SetDefault("container.pull_timeout", d.Container.PullTimeout.String())
	v.SetDefault("container.probe_timeout", d.Container.ProbeTimeout.String())

	v.SetDefault("paths.results_dir", d.Paths.ResultsDir)
	v.SetDefault("paths.raw_dir", "")
	v.SetDefault("paths.parsed_dir", "")
	v.SetDefault("paths.tmp_dir", d.Paths.TmpDir)
	v.SetDefault("paths.dataset_dir", d.Paths.DatasetDir)

	v.SetDefault("store.mirror.enabled", false)
	v.SetDefault("store.mirror.endpoint", "")
	v.SetDefault("store.mirror.region", "")
	v.SetDefault("store.mirror.bucket", "")
	v.SetDefault("store.mirror.access_key", "")
	v.SetDefault("store.mirror.secret_key", "")
	v.SetDefault("store.mirror.use_ssl", true)
	v.SetDefault("store.mirror.prefix", "")
}

// applyOverrides merges non-zero override values into the config.
//
// IMPORTANT: Boolean fields cannot be overridden to false using this function
// because Go's zero value for bool is false. CLI implementations handle
// boolean flags with cmd.Flags().Changed.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Analysis.Timeout != 0 {
		cfg.Analysis.Timeout = overrides.Analysis.Timeout
	}
	if len(overrides.Analysis.Tools) > 0 {
		cfg.Analysis.Tools = overrides.Analysis.Tools
	}
	if overrides.Analysis.Workers != 0 {
		cfg.Analysis.Workers = overrides.Analysis.Workers
	}
	if len(overrides.Analysis.ExtraRemaps) > 0 {
		cfg.Analysis.ExtraRemaps = append(cfg.Analysis.ExtraRemaps, overrides.Analysis.ExtraRemaps...)
	}
	if overrides.Analysis.KeepExtracted {
		cfg.Analysis.KeepExtracted = true
	}

	if overrides.Container.Mode != "" {
		cfg.Container.Mode = overrides.Container.Mode
	}
	if overrides.Container.Image != "" {
		cfg.Container.Image = overrides.Container.Image
	}

	if overrides.Paths.ResultsDir != "" {
		cfg.Paths.ResultsDir = overrides.Paths.ResultsDir
	}
	if overrides.Paths.DatasetDir != "" {
		cfg.Paths.DatasetDir = overrides.Paths.DatasetDir
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings
// and comma-separated lists from environment variables.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
