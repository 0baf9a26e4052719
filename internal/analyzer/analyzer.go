// Package analyzer runs the configured tools over contract artifacts.
//
// For every artifact, tools run in the order they were given. A tool whose
// languages do not include the artifact's language is skipped without a
// result, and so is a tool that reports itself unavailable. Every executed
// tool yields one AnalysisResult whose raw output, then normalized report,
// is persisted before the next tool starts.
//
// Import rules:
//   - CAN import: internal/clock, internal/contract, internal/ctxutil,
//     internal/parser, internal/result, internal/tool, std lib
//   - MUST NOT import: internal/cli, internal/store (persistence is injected)
package analyzer

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/sieve/internal/clock"
	"github.com/mrz1836/sieve/internal/contract"
	"github.com/mrz1836/sieve/internal/ctxutil"
	"github.com/mrz1836/sieve/internal/parser"
	"github.com/mrz1836/sieve/internal/result"
	"github.com/mrz1836/sieve/internal/tool"
)

// Store persists tool results.
type Store interface {
	SaveRaw(ctx context.Context, r *result.AnalysisResult) error
	SaveParsed(ctx context.Context, r *result.AnalysisResult) error
}

// Outcome holds the results of one artifact, in tool order.
type Outcome struct {
	Artifact *contract.Artifact
	Results  []*result.AnalysisResult
}

// ByTool indexes the results by tool name.
func (o Outcome) ByTool() map[string]*result.AnalysisResult {
	m := make(map[string]*result.AnalysisResult, len(o.Results))
	for _, r := range o.Results {
		m[r.Tool] = r
	}
	return m
}

// Analyzer orchestrates tool runs and persistence.
type Analyzer struct {
	tools   []tool.Tool
	store   Store
	workers int
	clock   clock.Clock
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers sets the batch worker count. It only takes effect when every
// tool is safe to run concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithClock sets the clock used to time tool runs.
func WithClock(c clock.Clock) Option {
	return func(a *Analyzer) {
		a.clock = c
	}
}

// New creates an Analyzer running tools in the given order.
func New(tools []tool.Tool, store Store, opts ...Option) *Analyzer {
	a := &Analyzer{
		tools:   tools,
		store:   store,
		workers: 1,
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Workers returns the effective batch concurrency.
func (a *Analyzer) Workers() int {
	if a.workers <= 1 {
		return 1
	}
	for _, t := range a.tools {
		if !t.ParallelSafe() {
			return 1
		}
	}
	return a.workers
}

// AnalyzeSingle runs every applicable tool against art.
func (a *Analyzer) AnalyzeSingle(ctx context.Context, art *contract.Artifact) Outcome {
	lc := zerolog.Ctx(ctx).With().Str("contract", art.Name())
	if addr := art.Address(); addr != "" {
		lc = lc.Str("address", addr)
	}
	logger := lc.Logger()
	logger.Info().Str("language", art.Language().String()).Msg("analyzing contract")

	out := Outcome{Artifact: art}
	for _, t := range a.tools {
		if err := ctxutil.Canceled(ctx); err != nil {
			logger.Warn().Err(err).Msg("analysis interrupted")
			return out
		}

		if !tool.Supports(t, art.Language()) {
			logger.Info().Msgf("Skipping %s - doesn't support %s", t.Name(), art.Language())
			continue
		}
		if !t.Available(ctx) {
			logger.Warn().Str("tool", t.Name()).Msgf("%s not available", t.Name())
			continue
		}

		out.Results = append(out.Results, a.runTool(ctx, logger, t, art))
	}
	return out
}

// runTool executes one tool, normalizes its output and persists both forms.
func (a *Analyzer) runTool(ctx context.Context, logger zerolog.Logger, t tool.Tool, art *contract.Artifact) *result.AnalysisResult {
	logger = logger.With().Str("tool", t.Name()).Logger()
	logger.Info().Msg("running tool")

	sw := clock.Start(a.clock)
	success, stdout, stderr := t.Run(ctx, art)
	elapsed := sw.Elapsed()

	r := result.New(art.Name(), art.Path(), t.Name(), success, elapsed, stdout, stderr)
	r.Address = art.Address()

	if reducer, ok := parser.For(t.Kind()); ok {
		r.Parsed = reducer.Parse(stdout, stderr)
		logger.Info().Int("findings", r.Parsed.TotalFindings).Msg("parsed tool output")
	}

	logger.Info().
		Bool("success", success).
		Dur("duration_ms", elapsed).
		Msgf("%s completed in %.2fs", t.Name(), elapsed.Seconds())

	if err := a.store.SaveRaw(ctx, r); err != nil {
		logger.Error().Err(err).Msg("failed to save raw output")
	}
	if err := a.store.SaveParsed(ctx, r); err != nil {
		logger.Error().Err(err).Msg("failed to save parsed output")
	}
	return r
}

// AnalyzeBatch analyzes arts and returns their outcomes in input order.
// Artifacts run one at a time unless Workers reports more than one.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, arts []*contract.Artifact) []Outcome {
	logger := zerolog.Ctx(ctx)
	workers := a.Workers()
	logger.Info().Int("contracts", len(arts)).Int("workers", workers).Msg("starting batch analysis")

	outcomes := make([]Outcome, len(arts))
	if workers == 1 {
		for i, art := range arts {
			if err := ctxutil.Canceled(ctx); err != nil {
				logger.Warn().Err(err).Int("completed", i).Msg("batch interrupted")
				return outcomes[:i]
			}
			logger.Info().Msgf("Contract %d/%d: %s", i+1, len(arts), art.Name())
			outcomes[i] = a.AnalyzeSingle(ctx, art)
		}
		logger.Info().Msg("batch analysis complete")
		return outcomes
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, art := range arts {
		g.Go(func() error {
			if err := ctxutil.Canceled(gctx); err != nil {
				return err
			}
			outcomes[i] = a.AnalyzeSingle(gctx, art)

			mu.Lock()
			done++
			logger.Info().Msgf("Contract %d/%d: %s", done, len(arts), art.Name())
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("batch interrupted")
	} else {
		logger.Info().Msg("batch analysis complete")
	}

	// Artifacts skipped by cancellation leave a zero Outcome; fill the
	// artifact so callers can still report them.
	for i := range outcomes {
		if outcomes[i].Artifact == nil {
			outcomes[i].Artifact = arts[i]
		}
	}
	return outcomes
}

// Executed reports whether any tool produced a result across outcomes.
func Executed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if len(o.Results) > 0 {
			return true
		}
	}
	return false
}
