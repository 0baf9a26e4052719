package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/ctxutil"
	"github.com/mrz1836/sieve/internal/store"
	"github.com/mrz1836/sieve/internal/tool"
	"github.com/mrz1836/sieve/internal/tui"
)

// ResultsFlags holds the flags shared by commands that read stored results.
type ResultsFlags struct {
	Tool       string
	ResultsDir string
}

func (f *ResultsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Tool, "tool", constants.ToolSlither, "tool whose results to read")
	cmd.Flags().StringVar(&f.ResultsDir, "results-dir", "", "results root (default from config: static_analysis_results)")
}

// openResults loads config and the result store for a stored-results command.
func openResults(ctx context.Context, flags *ResultsFlags, deps *runtimeDeps) (tool.Kind, *store.FileStore, error) {
	kind, err := tool.ParseKind(flags.Tool)
	if err != nil {
		return "", nil, err
	}

	overrides := &config.Config{}
	overrides.Paths.ResultsDir = flags.ResultsDir
	cfg, err := deps.loadConfig(ctx, overrides)
	if err != nil {
		return "", nil, err
	}

	st, err := store.FromConfig(cfg)
	if err != nil {
		return "", nil, err
	}
	return kind, st, nil
}

// ReparseSummary is one rewritten record in the reparse report.
type ReparseSummary struct {
	Contract      string  `json:"contract" yaml:"contract"`
	Findings      int     `json:"findings" yaml:"findings"`
	ExecutionTime float64 `json:"execution_time" yaml:"execution_time"`
	Error         string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func addReparseCommand(root *cobra.Command, global *GlobalFlags, deps *runtimeDeps) {
	flags := &ResultsFlags{}

	cmd := &cobra.Command{
		Use:   "reparse",
		Short: "Rebuild normalized reports from stored raw output",
		Long: `Run the reducer again over every raw output of a tool and rewrite the
normalized reports. Useful after the reducer changes; no tool is executed.

Examples:
  sieve reparse
  sieve reparse --tool slither --results-dir results/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReparse(cmd.Context(), cmd.OutOrStdout(), flags, global, deps)
		},
	}
	flags.register(cmd)

	root.AddCommand(cmd)
}

func runReparse(ctx context.Context, w io.Writer, flags *ResultsFlags, global *GlobalFlags, deps *runtimeDeps) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	ctx = commandContext(ctx)
	out := tui.NewOutput(w, global.Output)

	kind, st, err := openResults(ctx, flags, deps)
	if err != nil {
		return err
	}

	records, err := store.Reparse(ctx, st, kind)
	if err != nil {
		return err
	}

	summary := make([]ReparseSummary, 0, len(records))
	for _, rec := range records {
		summary = append(summary, ReparseSummary{
			Contract:      rec.Contract,
			Findings:      rec.Analysis.TotalFindings,
			ExecutionTime: rec.ExecutionTime,
			Error:         rec.Analysis.ErrorMessage(),
		})
	}

	if global.Output != OutputText {
		return out.Data(summary)
	}

	if len(summary) == 0 {
		out.Warning(fmt.Sprintf("no raw %s output under %s", kind, st.RawRoot()))
		return nil
	}

	rows := make([][]string, 0, len(summary))
	for _, s := range summary {
		rows = append(rows, []string{s.Contract, strconv.Itoa(s.Findings), s.Error})
	}
	out.Table([]string{"Contract", "Findings", "Error"}, rows)
	out.Success(fmt.Sprintf("re-parsed %d results into %s", len(summary), st.ParsedRoot()))
	return nil
}

// StatsFlags holds flags specific to the stats command.
type StatsFlags struct {
	ResultsFlags

	Top    int
	CSVDir string
}

func addStatsCommand(root *cobra.Command, global *GlobalFlags, deps *runtimeDeps) {
	flags := &StatsFlags{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored normalized reports",
		Long: `Aggregate the normalized reports of a tool: severity distribution, the
most common checks and a per-contract breakdown.

Examples:
  sieve stats
  sieve stats --top 5 --output json
  sieve stats --csv reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), cmd.OutOrStdout(), flags, global, deps)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&flags.Top, "top", store.DefaultTopChecks, "number of checks to rank (0 keeps all)")
	cmd.Flags().StringVar(&flags.CSVDir, "csv", "", "also write CSV summaries into this directory")

	root.AddCommand(cmd)
}

func runStats(ctx context.Context, w io.Writer, flags *StatsFlags, global *GlobalFlags, deps *runtimeDeps) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	ctx = commandContext(ctx)
	out := tui.NewOutput(w, global.Output)

	kind, st, err := openResults(ctx, &flags.ResultsFlags, deps)
	if err != nil {
		return err
	}

	records, err := st.ListParsed(string(kind))
	if err != nil {
		return err
	}
	stats := store.Aggregate(records, flags.Top)

	var written []string
	if flags.CSVDir != "" {
		written, err = stats.WriteCSV(flags.CSVDir)
		if err != nil {
			return err
		}
	}

	if global.Output != OutputText {
		return out.Data(stats)
	}

	if stats.Contracts == 0 {
		out.Warning(fmt.Sprintf("no normalized %s reports under %s", kind, st.ParsedRoot()))
		return nil
	}
	renderStats(out, stats)
	if len(written) > 0 {
		out.Success("wrote " + strings.Join(written, ", "))
	}
	return nil
}

func renderStats(out tui.Output, stats store.Stats) {
	out.Info(fmt.Sprintf("%d contracts, %d findings, %.2f per contract",
		stats.Contracts, stats.TotalFindings, stats.Average))

	out.Table([]string{"Severity", "Count", "Percent"}, shareRows(stats.BySeverity))

	if len(stats.TopChecks) > 0 {
		out.Table([]string{"Check", "Count", "Percent"}, shareRows(stats.TopChecks))
	}

	rows := make([][]string, 0, len(stats.PerContract))
	for _, c := range stats.PerContract {
		rows = append(rows, []string{
			c.Contract,
			strconv.Itoa(c.Total),
			strconv.Itoa(c.High),
			strconv.Itoa(c.Medium),
			strconv.Itoa(c.Low),
			strconv.Itoa(c.Informational),
			strconv.Itoa(c.Optimization),
		})
	}
	out.Table([]string{"Contract", "Total", "High", "Medium", "Low", "Info", "Opt"}, rows)
}

func shareRows(shares []store.Share) [][]string {
	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{s.Name, strconv.Itoa(s.Count), fmt.Sprintf("%.1f%%", s.Percent)})
	}
	return rows
}
