package constants

// Log file names and patterns.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.sieve/logs/sieve.log
	CLILogFileName = "sieve.log"
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is how many rotated files are kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 28

	// LogCompress gzips rotated files.
	LogCompress = true

	// HomeEnv overrides the sieve home directory.
	HomeEnv = "SIEVE_HOME"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global sieve configuration file.
	// This file is located in the sieve home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigDir is the directory holding project-specific configuration.
	ProjectConfigDir = ".sieve"

	// ProjectConfigName is the name of the project-specific configuration file.
	ProjectConfigName = "config.yaml"

	// EnvFileName is the dotenv file loaded from the working directory at startup.
	EnvFileName = ".env"
)

// Result file naming. Every stored artifact is keyed by "<contract>_<tool>".
const (
	// RawOutputSuffix is appended to raw stdout files.
	RawOutputSuffix = ".json"

	// RawErrorsSuffix is appended to raw stderr files.
	RawErrorsSuffix = "_errors.txt"

	// ParsedSuffix is appended to normalized report files.
	ParsedSuffix = "_parsed.json"
)

// SolcSelectLockName is the lock file serializing changes to the host-wide
// active compiler version.
const SolcSelectLockName = "solc-select.lock"
