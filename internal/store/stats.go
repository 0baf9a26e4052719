package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/mrz1836/sieve/internal/parser"
)

// DefaultTopChecks is how many check types Aggregate ranks by default.
const DefaultTopChecks = 15

// CSV export file names.
const (
	SeverityCSV    = "severity_distribution.csv"
	CheckCSV       = "finding_types.csv"
	PerContractCSV = "per_contract_summary.csv"
)

// Share is a count with its percentage of all findings.
type Share struct {
	Name    string  `json:"name" yaml:"name"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// ContractRow summarizes one normalized record.
type ContractRow struct {
	Contract      string `json:"contract" yaml:"contract"`
	Address       string `json:"address,omitempty" yaml:"address,omitempty"`
	Total         int    `json:"total" yaml:"total"`
	High          int    `json:"high" yaml:"high"`
	Medium        int    `json:"medium" yaml:"medium"`
	Low           int    `json:"low" yaml:"low"`
	Informational int    `json:"informational" yaml:"informational"`
	Optimization  int    `json:"optimization" yaml:"optimization"`
}

// Stats aggregates a set of normalized records.
type Stats struct {
	Contracts     int           `json:"contracts" yaml:"contracts"`
	TotalFindings int           `json:"total_findings" yaml:"total_findings"`
	Average       float64       `json:"average_per_contract" yaml:"average_per_contract"`
	BySeverity    []Share       `json:"by_severity" yaml:"by_severity"`
	TopChecks     []Share       `json:"top_checks" yaml:"top_checks"`
	PerContract   []ContractRow `json:"per_contract" yaml:"per_contract"`
}

// Aggregate totals records. Severities appear in rank order; checks are
// ranked by count (ties by name) and cut to topN. topN <= 0 keeps every check.
func Aggregate(records []*Record, topN int) Stats {
	severity := parser.NewSeverityCounts()
	checks := map[string]int{}
	stats := Stats{
		Contracts:   len(records),
		PerContract: make([]ContractRow, 0, len(records)),
	}

	for _, rec := range records {
		a := rec.Analysis
		if a == nil {
			a = parser.Empty("")
		}
		stats.TotalFindings += a.TotalFindings
		for sev, n := range a.FindingsBySeverity {
			severity[sev] += n
		}
		for check, n := range a.FindingsByCheck {
			checks[check] += n
		}
		stats.PerContract = append(stats.PerContract, ContractRow{
			Contract:      rec.Contract,
			Address:       rec.Address,
			Total:         a.TotalFindings,
			High:          a.FindingsBySeverity[parser.SeverityHigh],
			Medium:        a.FindingsBySeverity[parser.SeverityMedium],
			Low:           a.FindingsBySeverity[parser.SeverityLow],
			Informational: a.FindingsBySeverity[parser.SeverityInformational],
			Optimization:  a.FindingsBySeverity[parser.SeverityOptimization],
		})
	}

	if stats.Contracts > 0 {
		stats.Average = float64(stats.TotalFindings) / float64(stats.Contracts)
	}

	for _, sev := range parser.Severities() {
		stats.BySeverity = append(stats.BySeverity, share(string(sev), severity[sev], stats.TotalFindings))
	}

	ranked := make([]Share, 0, len(checks))
	for check, n := range checks {
		ranked = append(ranked, share(check, n, stats.TotalFindings))
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	stats.TopChecks = ranked

	return stats
}

func share(name string, count, total int) Share {
	s := Share{Name: name, Count: count}
	if total > 0 {
		s.Percent = float64(count) / float64(total) * 100
	}
	return s
}

// WriteCSV exports the severity distribution, ranked checks and per-contract
// rows into dir and returns the written paths.
func (s Stats) WriteCSV(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create csv directory: %w", err)
	}

	severityRows := [][]string{{"Severity", "Count", "Percentage"}}
	for _, sh := range s.BySeverity {
		severityRows = append(severityRows, []string{sh.Name, strconv.Itoa(sh.Count), formatPercent(sh.Percent)})
	}

	checkRows := [][]string{{"Check Type", "Count", "Percentage"}}
	for _, sh := range s.TopChecks {
		checkRows = append(checkRows, []string{sh.Name, strconv.Itoa(sh.Count), formatPercent(sh.Percent)})
	}

	contractRows := [][]string{{"Contract", "Total", "High", "Medium", "Low", "Informational", "Optimization"}}
	for _, row := range s.PerContract {
		contractRows = append(contractRows, []string{
			row.Contract,
			strconv.Itoa(row.Total),
			strconv.Itoa(row.High),
			strconv.Itoa(row.Medium),
			strconv.Itoa(row.Low),
			strconv.Itoa(row.Informational),
			strconv.Itoa(row.Optimization),
		})
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{SeverityCSV, severityRows},
		{CheckCSV, checkRows},
		{PerContractCSV, contractRows},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := writeCSV(p, f.rows); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path) //#nosec G304 -- path is built from the export directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
