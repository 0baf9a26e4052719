// Package parser reduces raw tool output into a normalized, severity
// bucketed Report.
//
// Reducers never fail: empty or unreadable output produces an Empty report
// whose metadata carries the reason.
package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Severity is the closed set of finding impacts.
type Severity string

// Severities in rank order.
const (
	SeverityHigh          Severity = "High"
	SeverityMedium        Severity = "Medium"
	SeverityLow           Severity = "Low"
	SeverityInformational Severity = "Informational"
	SeverityOptimization  Severity = "Optimization"
)

// Severities returns every Severity from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityInformational, SeverityOptimization}
}

// normalizeLabel trims and title-cases a tool label such as "HIGH" or
// "medium". Casers are stateful, so each call gets its own.
func normalizeLabel(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// ParseSeverity maps a tool impact label onto the closed set.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(normalizeLabel(s))
	for _, known := range Severities() {
		if sev == known {
			return sev, true
		}
	}
	return "", false
}

// SeverityCounts holds one count per Severity. It always marshals all five
// keys in rank order.
type SeverityCounts map[Severity]int

// NewSeverityCounts returns zero-filled counts.
func NewSeverityCounts() SeverityCounts {
	c := make(SeverityCounts, len(Severities()))
	for _, s := range Severities() {
		c[s] = 0
	}
	return c
}

// MarshalJSON renders the counts in rank order.
func (c SeverityCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range Severities() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(s))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c[s])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Finding is one simplified tool observation.
type Finding struct {
	Check                string `json:"check"`
	Impact               string `json:"impact"`
	Confidence           string `json:"confidence"`
	Description          string `json:"description"`
	FirstMarkdownElement string `json:"first_markdown_element"`
	Lines                []int  `json:"lines,omitempty"`
}

// Metadata carries tool-level facts outside the finding list.
type Metadata struct {
	TotalContracts int     `json:"total_contracts"`
	Error          *string `json:"error"`
}

// Report is the normalized result of one tool run.
type Report struct {
	Success            bool           `json:"success"`
	TotalFindings      int            `json:"total_findings"`
	FindingsBySeverity SeverityCounts `json:"findings_by_severity"`
	FindingsByCheck    map[string]int `json:"findings_by_check"`
	Findings           []Finding      `json:"findings"`
	Metadata           Metadata       `json:"metadata"`
}

// Empty returns a zero-count report whose metadata error is reason.
func Empty(reason string) *Report {
	return &Report{
		FindingsBySeverity: NewSeverityCounts(),
		FindingsByCheck:    map[string]int{},
		Findings:           []Finding{},
		Metadata:           Metadata{Error: &reason},
	}
}

// ErrorMessage returns the metadata error or "".
func (r *Report) ErrorMessage() string {
	if r == nil || r.Metadata.Error == nil {
		return ""
	}
	return *r.Metadata.Error
}
