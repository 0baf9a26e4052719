// Package logging provides logging utilities including sensitive data filtering.
// This package contains hooks and utilities for zerolog that help ensure
// explorer API keys, object store credentials and wallet secrets are never
// written to log files.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

// sensitivePatterns contains compiled regular expressions for detecting sensitive values.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// Explorer API keys passed as env assignments (ETHERSCAN_API_KEY=..., BSCSCAN_API_KEY=...)
	regexp.MustCompile(`(?i)[a-z]*scan_api_key\s*[:=]\s*["']?[A-Z0-9]{16,}["']?`),

	// API keys in query strings or assignments (apikey=..., api_key: ...)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?([a-zA-Z0-9_-]{16,})["']?`),

	// RPC endpoints with a project key in the path (Infura, Alchemy)
	regexp.MustCompile(`(?i)(infura\.io/v3|alchemy\.com/v2)/[a-zA-Z0-9_-]{16,}`),

	// AWS-style access key ids
	regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`),

	// Object store secret keys in config dumps or env
	regexp.MustCompile(`(?i)(secret[_-]?key|secret[_-]?access[_-]?key)\s*[:=]\s*["']?[^\s"',}]{8,}["']?`),

	// Wallet private keys and mnemonics
	regexp.MustCompile(`(?i)(private[_-]?key|mnemonic)\s*[:=]\s*["']?[^\s"',}]{16,}["']?`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_.-]{20,}`),

	// Generic secret patterns
	regexp.MustCompile(`(?i)(password|passwd|credential)\s*[:=]\s*["']?[^\s"']{8,}["']?`),

	// PEM private keys
	regexp.MustCompile(`(?i)-----BEGIN[A-Z\s]+PRIVATE KEY-----`),
}

// sensitiveFieldNames contains field name words that mark a value as sensitive.
// A field matches when the word appears on its own or bounded by '_' or '-'.
var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"apikey",
	"api_key",
	"api-key",
	"secret",
	"secret_key",
	"access_key",
	"password",
	"passwd",
	"credential",
	"credentials",
	"private_key",
	"mnemonic",
	"token",
	"bearer",
	"authorization",
}

// fieldSeparators bound words inside a field name.
var fieldSeparators = []string{"_", "-"} //nolint:gochecknoglobals // Package-level patterns for reuse

// SensitiveDataHook is a zerolog hook that flags log entries whose message
// carries sensitive data. zerolog hooks cannot rewrite the message, so the
// FilteringWriter does the actual redaction.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a new SensitiveDataHook for filtering sensitive data.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements the zerolog.Hook interface.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData checks if a string contains any sensitive data patterns.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue replaces any matches of sensitive patterns with [REDACTED].
func FilterSensitiveValue(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveFieldName checks if a field name indicates sensitive data.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFieldNames {
		if matchesSensitivePattern(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// matchesSensitivePattern reports whether sensitive equals fieldName or appears
// in it as a separator-bounded word.
func matchesSensitivePattern(fieldName, sensitive string) bool {
	if fieldName == "" || sensitive == "" {
		return false
	}
	if fieldName == sensitive {
		return true
	}
	return containsWordBoundary(fieldName, sensitive, fieldSeparators)
}

// containsWordBoundary reports whether word appears in s as a prefix, suffix or
// infix bounded by one of seps.
func containsWordBoundary(s, word string, seps []string) bool {
	for _, sep := range seps {
		if strings.HasPrefix(s, word+sep) || strings.HasSuffix(s, sep+word) {
			return true
		}
		for _, other := range seps {
			if strings.Contains(s, sep+word+other) {
				return true
			}
		}
	}
	return false
}

// RedactIfSensitive returns [REDACTED] if the field name indicates sensitive data,
// otherwise returns the value with sensitive patterns filtered.
func RedactIfSensitive(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// SafeValue returns a filtered value for a field, redacting sensitive data.
//
// Usage:
//
//	log.Info().Str("endpoint", logging.SafeValue("endpoint", rpcURL)).Msg("mirror ready")
func SafeValue(fieldName, value string) string {
	return RedactIfSensitive(fieldName, value)
}

// FilteringWriter wraps an io.Writer and filters sensitive data from output.
// It wraps the log file writer so secrets never reach disk.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter creates a new FilteringWriter that wraps the given writer.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer, filtering sensitive data before writing.
// It reports the original length so callers never see a short write.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	filtered := FilterSensitiveValue(string(p))
	if _, err = fw.w.Write([]byte(filtered)); err != nil {
		return 0, err
	}
	return len(p), nil
}
