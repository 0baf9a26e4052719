package parser

import (
	"github.com/mrz1836/sieve/internal/tool"
)

// Reducer converts raw tool output into a Report.
type Reducer interface {
	// Parse never fails; unusable output yields an Empty report.
	Parse(stdout, stderr string) *Report
}

// For returns the reducer for kind. Every tool.Kind must have a case here.
func For(kind tool.Kind) (Reducer, bool) {
	switch kind {
	case tool.KindSlither:
		return SlitherReducer{}, true
	default:
		return nil, false
	}
}
