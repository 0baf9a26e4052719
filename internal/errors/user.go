package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is the pre-built mapping of sentinel errors to their user-facing messages.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Contract input
	// ===================
	{
		err: ErrNotFound,
		info: ErrorInfo{
			Message: "The contract file does not exist.",
			Action:  "Check the path passed to --contract, --batch or --category.",
		},
	},
	{
		err: ErrUnsupportedLanguage,
		info: ErrorInfo{
			Message: "Only Solidity (.sol) and Rust (.rs) contracts are supported.",
			Action:  "Pass a .sol or .rs file.",
		},
	},
	{
		err: ErrNoContracts,
		info: ErrorInfo{
			Message: "No contracts were found for the given input.",
			Action:  "Verify the directory or dataset category contains .sol or .rs files.",
		},
	},
	{
		err: ErrMalformedProject,
		info: ErrorInfo{
			Message: "The file looks like an exported project but its JSON could not be read.",
			Action:  "The file is analyzed as plain source instead; re-export it from the explorer if results look wrong.",
		},
	},

	// ===================
	// Tools & backends
	// ===================
	{
		err: ErrNoValidTools,
		info: ErrorInfo{
			Message: "None of the requested tools are supported.",
			Action:  "Run 'sieve tools' to list supported tools, or pass --tools all.",
		},
	},
	{
		err: ErrUnknownTool,
		info: ErrorInfo{
			Message: "An unknown tool name was requested.",
			Action:  "Run 'sieve tools' to list supported tools.",
		},
	},
	{
		err: ErrToolUnavailable,
		info: ErrorInfo{
			Message: "The analysis tool is not installed.",
			Action:  "Install slither ('pip install slither-analyzer') or enable container mode with --docker on.",
		},
	},
	{
		err: ErrBackendUnavailable,
		info: ErrorInfo{
			Message: "The container runtime is not reachable or the analysis image is missing.",
			Action:  "Start Docker, or run with --docker off to use the local toolchain.",
		},
	},
	{
		err: ErrExecutionTimeout,
		info: ErrorInfo{
			Message: "The analysis tool did not finish before the timeout.",
			Action:  "Increase --timeout or analysis.timeout in config.",
		},
	},
	{
		err: ErrParseFailure,
		info: ErrorInfo{
			Message: "The tool output could not be parsed.",
			Action:  "Inspect the raw output under the raw results directory.",
		},
	},
	{
		err: ErrMirrorFailed,
		info: ErrorInfo{
			Message: "Results were saved locally but could not be uploaded to the object mirror.",
			Action:  "Check store.mirror endpoint and credentials.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigInvalidAnalysis,
		info: ErrorInfo{
			Message: "The analysis section of the configuration is invalid.",
			Action:  "Run 'sieve config show' and fix the reported value.",
		},
	},
	{
		err: ErrConfigInvalidSolc,
		info: ErrorInfo{
			Message: "The solc section of the configuration is invalid.",
			Action:  "Versions must look like 0.8.24.",
		},
	},
	{
		err: ErrConfigInvalidContainer,
		info: ErrorInfo{
			Message: "The container section of the configuration is invalid.",
			Action:  "container.mode must be one of auto, on, off.",
		},
	},
	{
		err: ErrConfigInvalidStore,
		info: ErrorInfo{
			Message: "The store section of the configuration is invalid.",
			Action:  "An enabled mirror needs endpoint, bucket and credentials.",
		},
	},
	{
		err: ErrConfigInvalidPaths,
		info: ErrorInfo{
			Message: "The paths section of the configuration is invalid.",
			Action:  "Result directories must not be empty.",
		},
	},

	// ===================
	// CLI input
	// ===================
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text, --output json or --output yaml.",
		},
	},
	{
		err: ErrInvalidRemap,
		info: ErrorInfo{
			Message: "A remap must be written as alias=directory.",
			Action:  "Example: --remap @openzeppelin=./node_modules/@openzeppelin",
		},
	},
	{
		err: ErrInvalidBackendMode,
		info: ErrorInfo{
			Message: "Invalid backend mode.",
			Action:  "Use --docker auto, --docker on or --docker off.",
		},
	},
	{
		err: ErrConflictingFlags,
		info: ErrorInfo{
			Message: "Conflicting flags were specified.",
			Action:  "Check the command help for valid flag combinations.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
