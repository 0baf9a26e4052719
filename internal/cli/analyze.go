package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/sieve/internal/analyzer"
	"github.com/mrz1836/sieve/internal/backend"
	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/contract"
	"github.com/mrz1836/sieve/internal/ctxutil"
	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/prep"
	"github.com/mrz1836/sieve/internal/store"
	"github.com/mrz1836/sieve/internal/tool"
	"github.com/mrz1836/sieve/internal/tui"
)

// AnalyzeFlags holds flags specific to the analyze command.
type AnalyzeFlags struct {
	Contract      string
	Batch         string
	Category      string
	Tools         string
	Timeout       int
	Docker        string
	Workers       int
	Remaps        []string
	KeepExtracted bool
	ResultsDir    string
}

// RunSummary is one (contract, tool) line of the analyze report.
type RunSummary struct {
	Contract      string  `json:"contract" yaml:"contract"`
	Address       string  `json:"address,omitempty" yaml:"address,omitempty"`
	Tool          string  `json:"tool" yaml:"tool"`
	Success       bool    `json:"success" yaml:"success"`
	ExecutionTime float64 `json:"execution_time" yaml:"execution_time"`
	Findings      int     `json:"findings" yaml:"findings"`
	Error         string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// AnalyzeReport is the structured result of an analyze run.
type AnalyzeReport struct {
	Contracts int          `json:"contracts" yaml:"contracts"`
	Backend   string       `json:"backend" yaml:"backend"`
	Runs      []RunSummary `json:"runs" yaml:"runs"`
	RawDir    string       `json:"raw_dir" yaml:"raw_dir"`
	ParsedDir string       `json:"parsed_dir" yaml:"parsed_dir"`
}

func addAnalyzeCommand(root *cobra.Command, global *GlobalFlags, deps *runtimeDeps) {
	flags := &AnalyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run static analysis tools over contracts",
		Long: `Run the selected analysis tools over one contract, a directory of
contracts, or a dataset category.

Raw tool output is written under <results>/raw/<tool>/ and normalized
reports under <results>/parsed/<tool>/.

Examples:
  sieve analyze -c contracts/Token.sol
  sieve analyze -b contracts/ --tools all --timeout 300
  sieve analyze --category reentrancy --docker on --workers 4
  sieve analyze -c Vault.sol --remap @openzeppelin=./lib/openzeppelin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd.Context(), cmd, cmd.OutOrStdout(), flags, global, deps)
		},
	}

	cmd.Flags().StringVarP(&flags.Contract, "contract", "c", "", "single contract file")
	cmd.Flags().StringVarP(&flags.Batch, "batch", "b", "", "directory with contracts (.sol and .rs, recursive)")
	cmd.Flags().StringVar(&flags.Category, "category", "", "dataset category (e.g., reentrancy)")
	cmd.Flags().StringVarP(&flags.Tools, "tools", "t", "", `comma-separated tools or "all" (default from config: slither)`)
	cmd.Flags().IntVar(&flags.Timeout, "timeout", 0, "per-tool timeout in seconds (default from config: 600)")
	cmd.Flags().StringVar(&flags.Docker, "docker", "", "container backend: auto, on or off (default from config: auto)")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "parallel contracts, container backend only")
	cmd.Flags().StringArrayVar(&flags.Remaps, "remap", nil, "extra alias=dir remap (repeatable)")
	cmd.Flags().BoolVar(&flags.KeepExtracted, "keep-extracted", false, "keep extracted project directories")
	cmd.Flags().StringVar(&flags.ResultsDir, "results-dir", "", "results root (default from config: static_analysis_results)")

	cmd.MarkFlagsMutuallyExclusive("contract", "batch", "category")
	cmd.MarkFlagsOneRequired("contract", "batch", "category")

	root.AddCommand(cmd)
}

// analyzeOverrides turns flags into config overrides, rejecting malformed
// values before any config is read.
func analyzeOverrides(flags *AnalyzeFlags) (*config.Config, error) {
	overrides := &config.Config{}

	switch flags.Docker {
	case "", config.ContainerModeAuto, config.ContainerModeOn, config.ContainerModeOff:
		overrides.Container.Mode = flags.Docker
	default:
		return nil, errors.Wrapf(errors.ErrInvalidBackendMode, "%q", flags.Docker)
	}

	if _, err := prep.ParseRemaps(flags.Remaps); err != nil {
		return nil, err
	}
	overrides.Analysis.ExtraRemaps = flags.Remaps

	if flags.Timeout < 0 {
		return nil, errors.Wrap(errors.ErrConfigInvalidAnalysis, "timeout must be positive")
	}
	overrides.Analysis.Timeout = time.Duration(flags.Timeout) * time.Second
	overrides.Analysis.Workers = flags.Workers
	overrides.Analysis.KeepExtracted = flags.KeepExtracted
	overrides.Paths.ResultsDir = flags.ResultsDir

	return overrides, nil
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, w io.Writer, flags *AnalyzeFlags, global *GlobalFlags, deps *runtimeDeps) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	ctx = commandContext(ctx)
	logger := GetLogger()
	out := tui.NewOutput(w, global.Output)

	overrides, err := analyzeOverrides(flags)
	if err != nil {
		return err
	}
	cfg, err := deps.loadConfig(ctx, overrides)
	if err != nil {
		return err
	}

	toolSpec := flags.Tools
	if !cmd.Flags().Changed("tools") {
		toolSpec = strings.Join(cfg.Analysis.Tools, ",")
	}
	kinds, unknown := tool.ParseKinds(toolSpec)
	for _, name := range unknown {
		logger.Warn().Str("tool", name).Msg("ignoring unknown tool")
	}
	if len(kinds) == 0 {
		return errors.Wrapf(errors.ErrNoValidTools, "tools %q", toolSpec)
	}

	arts, artErrs := resolveContracts(flags, cfg)
	for _, artErr := range artErrs {
		logger.Warn().Err(artErr).Msg("skipping contract")
	}
	if len(arts) == 0 {
		if len(artErrs) > 0 {
			return fmt.Errorf("%w: %w", errors.ErrNoContracts, stderrors.Join(artErrs...))
		}
		return errors.ErrNoContracts
	}

	selected := backend.Select(ctx, backend.SelectOptions{
		Container: cfg.Container,
		LockPath:  filepath.Join(cfg.Paths.TmpDir, constants.SolcSelectLockName),
		Runner:    deps.runner,
		GOOS:      deps.goos,
	})
	if selected.Fallback != nil && global.Output == OutputText {
		out.Warning("container backend unavailable, using the local toolchain")
	}

	tools, err := tool.NewAll(kinds, tool.Options{
		Config:   cfg,
		Backend:  selected.Backend,
		Prober:   selected.Prober,
		Scan:     prep.NewScanCache(prep.DefaultScanCacheSize, cfg.Solc.LegacyMarkers),
		LookPath: deps.lookPath,
	})
	if err != nil {
		return err
	}

	results, err := store.FromConfig(cfg)
	if err != nil {
		return err
	}

	an := analyzer.New(tools, results, analyzer.WithWorkers(cfg.Analysis.Workers))
	logger.Info().
		Int("contracts", len(arts)).
		Int("tools", len(tools)).
		Str("backend", string(selected.Backend.Mode())).
		Int("workers", an.Workers()).
		Msg("starting analysis")

	var outcomes []analyzer.Outcome
	if len(arts) == 1 {
		outcomes = []analyzer.Outcome{an.AnalyzeSingle(ctx, arts[0])}
	} else {
		outcomes = an.AnalyzeBatch(ctx, arts)
	}
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	report := buildAnalyzeReport(outcomes, len(arts), selected.Backend.Mode(), results)
	if err := renderAnalyzeReport(out, global.Output, report); err != nil {
		return err
	}

	if !analyzer.Executed(outcomes) {
		return errors.Wrap(errors.ErrToolUnavailable, "no tool executed")
	}
	return nil
}

// resolveContracts builds the artifacts named by exactly one of the input flags.
func resolveContracts(flags *AnalyzeFlags, cfg *config.Config) ([]*contract.Artifact, []error) {
	switch {
	case flags.Contract != "":
		art, err := contract.New(flags.Contract)
		if err != nil {
			return nil, []error{err}
		}
		return []*contract.Artifact{art}, nil
	case flags.Batch != "":
		return contract.Discover(flags.Batch)
	case flags.Category != "":
		return contract.Category(cfg.Paths.DatasetDir, flags.Category)
	default:
		return nil, nil
	}
}

func buildAnalyzeReport(outcomes []analyzer.Outcome, contracts int, mode backend.Mode, st *store.FileStore) AnalyzeReport {
	report := AnalyzeReport{
		Contracts: contracts,
		Backend:   string(mode),
		Runs:      []RunSummary{},
		RawDir:    st.RawRoot(),
		ParsedDir: st.ParsedRoot(),
	}
	for _, o := range outcomes {
		for _, r := range o.Results {
			run := RunSummary{
				Contract:      r.ContractName,
				Address:       r.Address,
				Tool:          r.Tool,
				Success:       r.Success,
				ExecutionTime: r.ExecutionTime,
				Findings:      r.FindingCount(),
			}
			if r.Parsed != nil {
				run.Error = r.Parsed.ErrorMessage()
			}
			if run.Error == "" && r.ErrorMessage != nil {
				run.Error = *r.ErrorMessage
			}
			report.Runs = append(report.Runs, run)
		}
	}
	return report
}

func renderAnalyzeReport(out tui.Output, format string, report AnalyzeReport) error {
	if format != OutputText {
		return out.Data(report)
	}

	if len(report.Runs) > 0 {
		rows := make([][]string, 0, len(report.Runs))
		for _, run := range report.Runs {
			status := "ok"
			if !run.Success {
				status = "failed"
			}
			rows = append(rows, []string{
				run.Contract,
				run.Tool,
				status,
				tui.FormatSeconds(run.ExecutionTime),
				strconv.Itoa(run.Findings),
			})
		}
		out.Table([]string{"Contract", "Tool", "Status", "Time", "Findings"}, rows)
	}

	out.Success(fmt.Sprintf("analysis complete. raw results saved to %s", report.RawDir))
	return nil
}
