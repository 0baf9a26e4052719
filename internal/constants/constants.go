// Package constants provides centralized constant values used throughout sieve.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by sieve for organizing data.
const (
	// SieveHome is the hidden directory name where sieve stores its global
	// configuration and logs. This directory is created in the user's home directory.
	SieveHome = ".sieve"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// ResultsDir is the default root directory for analysis results.
	ResultsDir = "static_analysis_results"

	// RawDir is the subdirectory of ResultsDir holding verbatim tool output.
	RawDir = "raw"

	// ParsedDir is the subdirectory of ResultsDir holding normalized reports.
	ParsedDir = "parsed"

	// TmpDir is the workspace-visible temp root. Extracted projects that must be
	// bind-mounted into a container are written here.
	TmpDir = "tmp"

	// DatasetDir is the root of the categorized contract dataset.
	DatasetDir = "dataset/solidity/exploits"
)

// Timeout configurations for various operations.
const (
	// DefaultToolTimeout is the default maximum duration of one tool invocation.
	DefaultToolTimeout = 600 * time.Second

	// DefaultPullTimeout bounds pulling the analysis image.
	DefaultPullTimeout = 300 * time.Second

	// DefaultProbeTimeout bounds the container runtime reachability probe.
	DefaultProbeTimeout = 5 * time.Second

	// LockRetryInterval is how often a blocked file lock is retried.
	LockRetryInterval = 50 * time.Millisecond
)

// Prefixes for temporary extraction directories.
const (
	// ExtractTempPrefix names extraction directories under the process temp dir.
	ExtractTempPrefix = "sieve-json-"

	// ExtractWorkspacePrefix names extraction directories under TmpDir.
	ExtractWorkspacePrefix = "sieve-extract-"
)

// Schema version constants for data migration support.
const (
	// ReportSchemaVersion is the current version of the normalized report document.
	ReportSchemaVersion = "1.0"
)
