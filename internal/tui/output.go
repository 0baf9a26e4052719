package tui

import "io"

// Output format names accepted by NewOutput.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Output provides methods for structured command output.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error, with a suggested action when one is known.
	Error(err error)
	// Warning prints a warning message.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// Table prints rows under headers.
	Table(headers []string, rows [][]string)
	// Data writes an arbitrary value in the output's structured form.
	Data(v any) error
}

// NewOutput creates the appropriate output based on format.
// Unknown formats fall back to styled text.
func NewOutput(w io.Writer, format string) Output {
	switch format {
	case FormatJSON:
		return NewJSONOutput(w)
	case FormatYAML:
		return NewYAMLOutput(w)
	default:
		return NewTTYOutput(w)
	}
}
