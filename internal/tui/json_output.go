package tui

import (
	"encoding/json"
	"errors"
	"io"

	sieveerrors "github.com/mrz1836/sieve/internal/errors"
)

// JSONOutput writes every message as one JSON object per line.
type JSONOutput struct {
	encoder *json.Encoder
}

// NewJSONOutput creates a new JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONOutput{encoder: enc}
}

// message is the structured format for Success/Warning/Info messages.
type message struct {
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
}

// errorMessage is the structured format for Error messages.
type errorMessage struct {
	Type       string `json:"type" yaml:"type"`
	Message    string `json:"message" yaml:"message"`
	Details    string `json:"details,omitempty" yaml:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

func newErrorMessage(err error) errorMessage {
	msg := errorMessage{Type: "error", Message: err.Error()}
	if wrapped := errors.Unwrap(err); wrapped != nil {
		msg.Details = wrapped.Error()
	}
	_, msg.Suggestion = sieveerrors.Actionable(err)
	return msg
}

// tableRows maps each row onto its headers.
func tableRows(headers []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			} else {
				obj[h] = ""
			}
		}
		out = append(out, obj)
	}
	return out
}

// Success outputs {"type": "success", "message": "..."}.
func (o *JSONOutput) Success(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(message{Type: "success", Message: msg})
}

// Error outputs the error with its unwrapped details and suggested action.
func (o *JSONOutput) Error(err error) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(newErrorMessage(err))
}

// Warning outputs {"type": "warning", "message": "..."}.
func (o *JSONOutput) Warning(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(message{Type: "warning", Message: msg})
}

// Info outputs {"type": "info", "message": "..."}.
func (o *JSONOutput) Info(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(message{Type: "info", Message: msg})
}

// Table outputs tabular data as an array of objects keyed by header.
func (o *JSONOutput) Table(headers []string, rows [][]string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(tableRows(headers, rows))
}

// Data outputs v as JSON.
func (o *JSONOutput) Data(v any) error {
	return o.encoder.Encode(v)
}
