package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/ctxutil"
	"github.com/mrz1836/sieve/internal/tui"
)

// ConfigPaths lists the files the effective configuration was layered from.
type ConfigPaths struct {
	Global  string `json:"global" yaml:"global"`
	Project string `json:"project" yaml:"project"`
}

// ConfigShowReport is the structured result of config show.
type ConfigShowReport struct {
	Sources ConfigPaths   `json:"sources" yaml:"sources"`
	Config  config.Config `json:"config" yaml:"config"`
}

func addConfigCommand(root *cobra.Command, global *GlobalFlags, deps *runtimeDeps) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect sieve configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective configuration after layering built-in defaults,
~/.sieve/config.yaml, .sieve/config.yaml and SIEVE_* environment variables.

Object store credentials are masked in the output.

Examples:
  sieve config show
  sieve config show --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), global, deps)
		},
	}

	configCmd.AddCommand(showCmd)
	root.AddCommand(configCmd)
}

func runConfigShow(ctx context.Context, w io.Writer, global *GlobalFlags, deps *runtimeDeps) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	ctx = commandContext(ctx)

	cfg, err := deps.loadConfig(ctx, nil)
	if err != nil {
		return err
	}

	report := ConfigShowReport{
		Sources: ConfigPaths{Project: config.ProjectConfigPath()},
		Config:  cfg.Redacted(),
	}
	if path, err := config.GlobalConfigPath(); err == nil {
		report.Sources.Global = path
	}

	// Text output renders YAML, which mirrors the config file format.
	return tui.NewOutput(w, global.Output).Data(report)
}
