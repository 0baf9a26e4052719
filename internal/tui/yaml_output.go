package tui

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLOutput writes every message as its own YAML document.
type YAMLOutput struct {
	w io.Writer
}

// NewYAMLOutput creates a new YAMLOutput.
func NewYAMLOutput(w io.Writer) *YAMLOutput {
	return &YAMLOutput{w: w}
}

// encode writes v as a "---" separated document.
func (o *YAMLOutput) encode(v any) error {
	if _, err := io.WriteString(o.w, "---\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(o.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Success outputs a success document.
func (o *YAMLOutput) Success(msg string) {
	_ = o.encode(message{Type: "success", Message: msg})
}

// Error outputs an error document.
func (o *YAMLOutput) Error(err error) {
	_ = o.encode(newErrorMessage(err))
}

// Warning outputs a warning document.
func (o *YAMLOutput) Warning(msg string) {
	_ = o.encode(message{Type: "warning", Message: msg})
}

// Info outputs an info document.
func (o *YAMLOutput) Info(msg string) {
	_ = o.encode(message{Type: "info", Message: msg})
}

// Table outputs a sequence of mappings keyed by header.
func (o *YAMLOutput) Table(headers []string, rows [][]string) {
	_ = o.encode(tableRows(headers, rows))
}

// Data outputs v as a YAML document.
func (o *YAMLOutput) Data(v any) error {
	return o.encode(v)
}
