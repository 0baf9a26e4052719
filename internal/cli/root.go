package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// This is set during PersistentPreRunE and should be accessed via GetLogger.
// Access is protected by globalLoggerMu for thread safety.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// IMPORTANT: This function MUST only be called after the root command's
// PersistentPreRunE has executed. Calling it before initialization will
// return a zero-value logger that discards all log output.
//
// This function is safe for concurrent use.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// commandContext attaches the CLI logger to ctx so packages below the CLI
// can log through zerolog.Ctx.
func commandContext(ctx context.Context) context.Context {
	logger := GetLogger()
	return logger.WithContext(ctx)
}

// newRootCmd creates and returns the root command for the sieve CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo, deps *runtimeDeps) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "sieve",
		Short: "sieve - smart contract static analysis orchestrator",
		Long: `sieve runs static analysis tools over smart contracts and normalizes
their findings into severity-bucketed reports.

Features:
  • Single contracts, whole directories or named dataset categories
  • Explorer project exports extracted with dependency remaps resolved
  • Compiler version chosen from pragmas and legacy syntax
  • Local toolchain or an isolated analysis container
  • Raw and normalized results persisted per contract and tool`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd, flags); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			globalLoggerMu.Lock()
			globalLogger = deps.initLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Unlock()

			return nil
		},
		// SilenceUsage prevents printing usage on error
		// (we handle our own error messages)
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	addAnalyzeCommand(cmd, flags, deps)
	addReparseCommand(cmd, flags, deps)
	addStatsCommand(cmd, flags, deps)
	addToolsCommand(cmd, flags, deps)
	addSolcCommand(cmd, flags, deps)
	addConfigCommand(cmd, flags, deps)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info, defaultDeps())
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		tui.NewOutput(cmd.ErrOrStderr(), flags.Output).Error(err)
	}
	return err
}
