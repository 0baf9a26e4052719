// Package config provides configuration management for sieve with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (SIEVE_* prefix, a .env file in the working directory is honored)
//  3. Project config (.sieve/config.yaml)
//  4. Global config (~/.sieve/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/mrz1836/sieve/internal/constants"
)

// Config is the root configuration structure for sieve.
type Config struct {
	// Analysis controls which tools run and how long each may take.
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`

	// Solc controls compiler version selection.
	Solc SolcConfig `yaml:"solc" mapstructure:"solc"`

	// Container controls the isolated container backend.
	Container ContainerConfig `yaml:"container" mapstructure:"container"`

	// Paths controls where results and temporary files are written.
	Paths PathsConfig `yaml:"paths" mapstructure:"paths"`

	// Store controls optional replication of results.
	Store StoreConfig `yaml:"store" mapstructure:"store"`
}

// AnalysisConfig contains settings for tool execution.
type AnalysisConfig struct {
	// Timeout bounds a single tool invocation.
	// Default: 600s
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Tools is the ordered list of tools to run. "all" selects every known tool.
	// Default: ["slither"]
	Tools []string `yaml:"tools" mapstructure:"tools"`

	// Workers is the batch worker count. Values above 1 only take effect
	// with the container backend.
	// Default: 1
	Workers int `yaml:"workers" mapstructure:"workers"`

	// ExtraRemaps are alias=dir bindings appended after the resolved ones.
	ExtraRemaps []string `yaml:"extra_remaps" mapstructure:"extra_remaps"`

	// KeepExtracted leaves extracted project directories on disk for inspection.
	KeepExtracted bool `yaml:"keep_extracted" mapstructure:"keep_extracted"`
}

// SolcConfig contains compiler version selection settings.
type SolcConfig struct {
	// ModernDefault is chosen for flexible modern pragmas or when nothing is declared.
	ModernDefault string `yaml:"modern_default" mapstructure:"modern_default"`

	// ModernFloor is the lowest major.minor a caret pragma needs to count as modern.
	ModernFloor string `yaml:"modern_floor" mapstructure:"modern_floor"`

	// LegacyVersion is chosen when legacy-only syntax is present.
	LegacyVersion string `yaml:"legacy_version" mapstructure:"legacy_version"`

	// LegacyMarkers are tokens that only appear in pre-0.5 sources.
	LegacyMarkers []string `yaml:"legacy_markers" mapstructure:"legacy_markers"`

	// InstallVersions is the list installed by "sieve solc install".
	InstallVersions []string `yaml:"install_versions" mapstructure:"install_versions"`
}

// Container backend modes.
const (
	ContainerModeAuto = "auto"
	ContainerModeOn   = "on"
	ContainerModeOff  = "off"
)

// ContainerConfig contains settings for the isolated container backend.
type ContainerConfig struct {
	// Mode is one of auto, on, off. Auto enables the container on darwin.
	Mode string `yaml:"mode" mapstructure:"mode"`

	// Image is the analysis image.
	Image string `yaml:"image" mapstructure:"image"`

	// MountPoint is where the mount root appears inside the container.
	MountPoint string `yaml:"mount_point" mapstructure:"mount_point"`

	// PullTimeout bounds pulling a missing image.
	PullTimeout time.Duration `yaml:"pull_timeout" mapstructure:"pull_timeout"`

	// ProbeTimeout bounds the daemon reachability probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// Enabled resolves Mode against the given GOOS.
func (c *ContainerConfig) Enabled(goos string) bool {
	switch c.Mode {
	case ContainerModeOn:
		return true
	case ContainerModeOff:
		return false
	default:
		return goos == "darwin"
	}
}

// EnabledHere resolves Mode for the running platform.
func (c *ContainerConfig) EnabledHere() bool {
	return c.Enabled(runtime.GOOS)
}

// PathsConfig contains filesystem locations.
type PathsConfig struct {
	// ResultsDir is the root for raw and parsed outputs.
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`

	// RawDir overrides <results_dir>/raw when set.
	RawDir string `yaml:"raw_dir" mapstructure:"raw_dir"`

	// ParsedDir overrides <results_dir>/parsed when set.
	ParsedDir string `yaml:"parsed_dir" mapstructure:"parsed_dir"`

	// TmpDir is the workspace-visible temp root used for container extraction.
	TmpDir string `yaml:"tmp_dir" mapstructure:"tmp_dir"`

	// DatasetDir holds one subdirectory per contract category.
	DatasetDir string `yaml:"dataset_dir" mapstructure:"dataset_dir"`
}

// RawRoot returns the directory holding verbatim tool output.
func (p *PathsConfig) RawRoot() string {
	if p.RawDir != "" {
		return p.RawDir
	}
	return filepath.Join(p.ResultsDir, constants.RawDir)
}

// ParsedRoot returns the directory holding normalized reports.
func (p *PathsConfig) ParsedRoot() string {
	if p.ParsedDir != "" {
		return p.ParsedDir
	}
	return filepath.Join(p.ResultsDir, constants.ParsedDir)
}

// StoreConfig contains result store settings.
type StoreConfig struct {
	// Mirror replicates every written artifact to an S3-compatible bucket.
	Mirror MirrorConfig `yaml:"mirror" mapstructure:"mirror"`
}

// MirrorConfig describes an S3-compatible object store.
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	Region    string `yaml:"region" mapstructure:"region"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"` //nolint:gosec // loaded from env, redacted on display
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
}

// Redacted returns a copy of the config safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Store.Mirror.SecretKey != "" {
		out.Store.Mirror.SecretKey = "[REDACTED]"
	}
	if out.Store.Mirror.AccessKey != "" {
		out.Store.Mirror.AccessKey = "[REDACTED]"
	}
	return out
}
