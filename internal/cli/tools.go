package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/sieve/internal/backend"
	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/ctxutil"
	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/tool"
	"github.com/mrz1836/sieve/internal/tui"
)

// ToolRow is one line of the tools report.
type ToolRow struct {
	Name           string `json:"name" yaml:"name"`
	Required       bool   `json:"required" yaml:"required"`
	Status         string `json:"status" yaml:"status"`
	CurrentVersion string `json:"current_version,omitempty" yaml:"current_version,omitempty"`
	MinVersion     string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
	InstallHint    string `json:"install_hint,omitempty" yaml:"install_hint,omitempty"`
}

// ToolsReport lists supported analysis tools and the detected toolchain.
type ToolsReport struct {
	Supported []string  `json:"supported" yaml:"supported"`
	Toolchain []ToolRow `json:"toolchain" yaml:"toolchain"`
}

func addToolsCommand(root *cobra.Command, global *GlobalFlags, deps *runtimeDeps) {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List analysis tools and check the local toolchain",
		Long: `List the analysis tools sieve can run and report whether the external
programs they depend on are installed and recent enough.

Examples:
  sieve tools
  sieve tools --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTools(cmd.Context(), cmd.OutOrStdout(), global, deps)
		},
	}
	root.AddCommand(cmd)
}

func runTools(ctx context.Context, w io.Writer, global *GlobalFlags, deps *runtimeDeps) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	ctx = commandContext(ctx)
	out := tui.NewOutput(w, global.Output)

	detected, err := deps.detector.Detect(ctx)
	if err != nil {
		return err
	}

	report := ToolsReport{Toolchain: make([]ToolRow, 0, len(detected.Tools))}
	for _, k := range tool.Known() {
		report.Supported = append(report.Supported, string(k))
	}
	for _, t := range detected.Tools {
		report.Toolchain = append(report.Toolchain, ToolRow{
			Name:           t.Name,
			Required:       t.Required,
			Status:         t.Status.String(),
			CurrentVersion: t.CurrentVersion,
			MinVersion:     t.MinVersion,
			InstallHint:    t.InstallHint,
		})
	}

	if global.Output != OutputText {
		return out.Data(report)
	}

	out.Info("supported tools: " + strings.Join(report.Supported, ", "))
	rows := make([][]string, 0, len(report.Toolchain))
	for _, r := range report.Toolchain {
		required := "no"
		if r.Required {
			required = "yes"
		}
		rows = append(rows, []string{r.Name, required, r.Status, r.CurrentVersion, r.MinVersion})
	}
	out.Table([]string{"Program", "Required", "Status", "Version", "Minimum"}, rows)

	if detected.HasMissingRequired {
		out.Warning(strings.TrimSpace(config.FormatMissingToolsError(detected.MissingRequiredTools())))
	}
	return nil
}

// SolcInstallReport is the structured result of solc install.
type SolcInstallReport struct {
	Results []backend.InstallResult `json:"results" yaml:"results"`
	Missing []string                `json:"missing" yaml:"missing"`
}

func addSolcCommand(root *cobra.Command, global *GlobalFlags, deps *runtimeDeps) {
	solcCmd := &cobra.Command{
		Use:   "solc",
		Short: "Manage local Solidity compilers",
	}

	installCmd := &cobra.Command{
		Use:   "install [versions...]",
		Short: "Install compiler versions with solc-select",
		Long: `Install Solidity compiler releases for the native backend. Without
arguments the solc.install_versions list from config is used, one
representative release per language era.

Examples:
  sieve solc install
  sieve solc install 0.8.24 0.4.26`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolcInstall(cmd.Context(), cmd.OutOrStdout(), args, global, deps)
		},
	}

	solcCmd.AddCommand(installCmd)
	root.AddCommand(solcCmd)
}

func runSolcInstall(ctx context.Context, w io.Writer, versions []string, global *GlobalFlags, deps *runtimeDeps) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	ctx = commandContext(ctx)
	out := tui.NewOutput(w, global.Output)

	if len(versions) == 0 {
		cfg, err := deps.loadConfig(ctx, nil)
		if err != nil {
			return err
		}
		versions = cfg.Solc.InstallVersions
	}
	if len(versions) == 0 {
		return errors.Wrap(errors.ErrEmptyValue, "no compiler versions to install")
	}

	results := backend.NewSolcInstaller(deps.runner).Install(ctx, versions)
	report := SolcInstallReport{Results: results, Missing: backend.Missing(results)}
	if report.Missing == nil {
		report.Missing = []string{}
	}

	if global.Output != OutputText {
		if err := out.Data(report); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{r.Version, string(r.Status), r.Error})
		}
		out.Table([]string{"Version", "Status", "Error"}, rows)
	}

	if len(report.Missing) > 0 {
		return errors.Wrapf(errors.ErrCommandFailed, "missing compiler versions: %s", strings.Join(report.Missing, ", "))
	}
	if global.Output == OutputText {
		out.Success(fmt.Sprintf("all %d compiler versions installed", len(versions)))
	}
	return nil
}
