package parser

import (
	"encoding/json"
	"strings"
)

type slitherSourceMapping struct {
	Lines []int `json:"lines"`
}

type slitherElement struct {
	SourceMapping slitherSourceMapping `json:"source_mapping"`
}

type slitherDetector struct {
	Check                string           `json:"check"`
	Impact               string           `json:"impact"`
	Confidence           string           `json:"confidence"`
	Description          string           `json:"description"`
	FirstMarkdownElement string           `json:"first_markdown_element"`
	Elements             []slitherElement `json:"elements"`
}

type slitherOutput struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
	Results struct {
		Detectors []slitherDetector `json:"detectors"`
		Printers  []json.RawMessage `json:"printers"`
	} `json:"results"`
}

// SlitherReducer reduces `slither --json -` output.
//
// Findings with an impact outside the Severity set are dropped from the
// buckets and the finding list but still counted in FindingsByCheck.
type SlitherReducer struct{}

// Parse implements Reducer.
func (SlitherReducer) Parse(stdout, _ string) *Report {
	if strings.TrimSpace(stdout) == "" {
		return Empty("No output from Slither")
	}

	var out slitherOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		return Empty("Invalid JSON: " + err.Error())
	}

	buckets := make(map[Severity][]Finding, len(Severities()))
	byCheck := map[string]int{}

	for _, d := range out.Results.Detectors {
		f := simplify(d)
		byCheck[f.Check]++
		if sev, ok := ParseSeverity(f.Impact); ok {
			buckets[sev] = append(buckets[sev], f)
		}
	}

	r := &Report{
		Success:            out.Success,
		FindingsBySeverity: NewSeverityCounts(),
		FindingsByCheck:    byCheck,
		Findings:           []Finding{},
		Metadata: Metadata{
			TotalContracts: len(out.Results.Printers),
			Error:          out.Error,
		},
	}
	for _, sev := range Severities() {
		r.FindingsBySeverity[sev] = len(buckets[sev])
		r.TotalFindings += len(buckets[sev])
		r.Findings = append(r.Findings, buckets[sev]...)
	}
	return r
}

func simplify(d slitherDetector) Finding {
	f := Finding{
		Check:                d.Check,
		Impact:               normalizeLabel(d.Impact),
		Confidence:           normalizeLabel(d.Confidence),
		Description:          strings.TrimSpace(d.Description),
		FirstMarkdownElement: d.FirstMarkdownElement,
	}
	if f.Check == "" {
		f.Check = "unknown"
	}
	if f.Impact == "" {
		f.Impact = "Unknown"
	}
	if f.Confidence == "" {
		f.Confidence = "Unknown"
	}
	if len(d.Elements) > 0 && len(d.Elements[0].SourceMapping.Lines) > 0 {
		f.Lines = d.Elements[0].SourceMapping.Lines
	}
	return f
}
