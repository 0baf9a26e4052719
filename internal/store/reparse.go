package store

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/ctxutil"
	sieveerrors "github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/parser"
	"github.com/mrz1836/sieve/internal/tool"
)

// Reparse runs the reducer for kind over every stored raw output and rewrites
// the normalized records. Stored stderr is ignored, matching a run whose tool
// wrote nothing to stderr. An existing record keeps its execution time and
// contract address.
func Reparse(ctx context.Context, s *FileStore, kind tool.Kind) ([]*Record, error) {
	reducer, ok := parser.For(kind)
	if !ok {
		return nil, sieveerrors.Wrapf(sieveerrors.ErrUnknownTool, "no reducer for %s", kind)
	}

	entries, err := s.ListRaw(string(kind))
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if err := ctxutil.Canceled(ctx); err != nil {
			return records, err
		}

		raw, err := os.ReadFile(entry.StdoutPath) //#nosec G304 -- path comes from the raw root listing
		if err != nil {
			return records, sieveerrors.Wrapf(err, "read raw output for %s", entry.Contract)
		}

		rec := &Record{
			Contract: entry.Contract,
			Tool:     entry.Tool,
			Analysis: reducer.Parse(string(raw), ""),
		}
		prev, err := s.LoadParsed(entry.Contract, entry.Tool)
		switch {
		case err == nil:
			rec.ExecutionTime = prev.ExecutionTime
			rec.Address = prev.Address
		case !errors.Is(err, fs.ErrNotExist):
			logger.Warn().Err(err).Str("contract", entry.Contract).Msg("ignoring unreadable previous record")
		}

		if err := s.SaveRecord(ctx, rec); err != nil {
			return records, err
		}
		logger.Debug().
			Str("contract", rec.Contract).
			Int("findings", rec.Analysis.TotalFindings).
			Msg("reparsed raw output")
		records = append(records, rec)
	}
	return records, nil
}
