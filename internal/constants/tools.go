// Package constants provides centralized constant values used throughout sieve.
// This file contains tool-related constants for the tool detection system.
package constants

import "time"

// Tool detection timeout configuration.
const (
	// ToolDetectionTimeout is the maximum duration for detecting all tools.
	// Detection runs in parallel but must complete within this timeout.
	ToolDetectionTimeout = 5 * time.Second
)

// Executable names used by the execution backends and the tool detection system.
const (
	// ToolSlither is the Slither static analyzer.
	ToolSlither = "slither"

	// ToolSolcSelect is the solc version manager.
	ToolSolcSelect = "solc-select"

	// ToolSolc is the Solidity compiler.
	ToolSolc = "solc"

	// ToolDocker is the container runtime CLI.
	ToolDocker = "docker"
)

// Minimum version requirements for required tools.
const (
	// MinVersionSlither is the minimum Slither version with --solc-remaps support.
	MinVersionSlither = "0.9.0"

	// MinVersionSolcSelect is the minimum solc-select version.
	MinVersionSolcSelect = "1.0.0"

	// MinVersionDocker is the minimum supported Docker version.
	MinVersionDocker = "20.10.0"
)

// Tool version command arguments.
const (
	// VersionFlagStandard is the standard version flag used by most tools.
	VersionFlagStandard = "--version"
)

// Container defaults.
const (
	// DefaultImage is the analysis image used by the container backend.
	DefaultImage = "ghcr.io/trailofbits/eth-security-toolbox:nightly"

	// DefaultMountPoint is where the mount root appears inside the container.
	DefaultMountPoint = "/share"
)

// Compiler version defaults.
const (
	// DefaultModernSolc is selected for flexible modern pragmas or when nothing is declared.
	DefaultModernSolc = "0.8.24"

	// DefaultModernFloor is the lowest major.minor treated as modern for caret pragmas.
	DefaultModernFloor = "0.8"

	// DefaultLegacySolc is selected when legacy-only syntax is detected.
	DefaultLegacySolc = "0.4.9"
)
