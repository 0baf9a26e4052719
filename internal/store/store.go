// Package store persists raw and normalized tool output.
//
// Every artifact is keyed by "<contract>_<tool>" under a per-tool directory:
//
//	<raw-root>/<tool>/<contract>_<tool>.json          verbatim stdout
//	<raw-root>/<tool>/<contract>_<tool>_errors.txt    verbatim stderr
//	<parsed-root>/<tool>/<contract>_<tool>_parsed.json
//
// Raw files are written only when non-empty. A later run with the same key
// overwrites the files of an earlier one. When a Mirror is configured, each
// written file is also uploaded; mirror failures are logged and never fail
// the local write.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/ctxutil"
	sieveerrors "github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/parser"
	"github.com/mrz1836/sieve/internal/result"
)

// Directory and file permission constants.
const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Content types handed to the mirror.
const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Record is the normalized document written for one (contract, tool) run.
type Record struct {
	Contract      string         `json:"contract"`
	Tool          string         `json:"tool"`
	Address       string         `json:"address,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
	Analysis      *parser.Report `json:"analysis"`
}

// RawEntry locates the raw files of one stored run.
type RawEntry struct {
	Contract   string
	Tool       string
	StdoutPath string
	ErrorsPath string
}

// FileStore implements result persistence on the local filesystem.
type FileStore struct {
	rawRoot    string
	parsedRoot string
	mirror     Mirror
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithMirror uploads every written file to m as well.
func WithMirror(m Mirror) Option {
	return func(s *FileStore) {
		s.mirror = m
	}
}

// NewFileStore creates a FileStore rooted at the given raw and parsed directories.
// Directories are created lazily on first write.
func NewFileStore(rawRoot, parsedRoot string, opts ...Option) *FileStore {
	s := &FileStore{rawRoot: rawRoot, parsedRoot: parsedRoot}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RawRoot returns the raw output root.
func (s *FileStore) RawRoot() string { return s.rawRoot }

// ParsedRoot returns the normalized output root.
func (s *FileStore) ParsedRoot() string { return s.parsedRoot }

// RawPath returns where stdout of (contract, tool) is stored.
func (s *FileStore) RawPath(contract, tool string) string {
	return filepath.Join(s.rawRoot, tool, key(contract, tool)+constants.RawOutputSuffix)
}

// ErrorsPath returns where stderr of (contract, tool) is stored.
func (s *FileStore) ErrorsPath(contract, tool string) string {
	return filepath.Join(s.rawRoot, tool, key(contract, tool)+constants.RawErrorsSuffix)
}

// ParsedPath returns where the normalized record of (contract, tool) is stored.
func (s *FileStore) ParsedPath(contract, tool string) string {
	return filepath.Join(s.parsedRoot, tool, key(contract, tool)+constants.ParsedSuffix)
}

// SaveRaw writes the verbatim stdout and stderr of r. Empty streams are not written.
func (s *FileStore) SaveRaw(ctx context.Context, r *result.AnalysisResult) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if r.RawStdout == "" && r.RawStderr == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(s.rawRoot, r.Tool), dirPerm); err != nil {
		return fmt.Errorf("failed to create raw directory for %s: %w", r.Tool, err)
	}

	if r.RawStdout != "" {
		if err := s.write(ctx, s.RawPath(r.ContractName, r.Tool), []byte(r.RawStdout), contentTypeJSON); err != nil {
			return fmt.Errorf("failed to save raw output for %s: %w", r.Key(), err)
		}
	}
	if r.RawStderr != "" {
		if err := s.write(ctx, s.ErrorsPath(r.ContractName, r.Tool), []byte(r.RawStderr), contentTypeText); err != nil {
			return fmt.Errorf("failed to save raw errors for %s: %w", r.Key(), err)
		}
	}
	return nil
}

// SaveParsed writes the normalized record of r. Results without a parsed
// report are skipped.
func (s *FileStore) SaveParsed(ctx context.Context, r *result.AnalysisResult) error {
	if r.Parsed == nil {
		return nil
	}
	return s.SaveRecord(ctx, &Record{
		Contract:      r.ContractName,
		Tool:          r.Tool,
		Address:       r.Address,
		ExecutionTime: r.ExecutionTime,
		Analysis:      r.Parsed,
	})
}

// SaveRecord writes rec to its parsed path.
func (s *FileStore) SaveRecord(ctx context.Context, rec *Record) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", key(rec.Contract, rec.Tool), err)
	}

	if err := os.MkdirAll(filepath.Join(s.parsedRoot, rec.Tool), dirPerm); err != nil {
		return fmt.Errorf("failed to create parsed directory for %s: %w", rec.Tool, err)
	}

	if err := s.write(ctx, s.ParsedPath(rec.Contract, rec.Tool), data, contentTypeJSON); err != nil {
		return fmt.Errorf("failed to save parsed record for %s: %w", key(rec.Contract, rec.Tool), err)
	}
	return nil
}

// LoadParsed reads the normalized record of (contract, tool).
// A missing record returns an error matching fs.ErrNotExist.
func (s *FileStore) LoadParsed(contract, tool string) (*Record, error) {
	return readRecord(s.ParsedPath(contract, tool))
}

// ListParsed returns every normalized record for tool, sorted by contract name.
// A tool with no parsed directory yields an empty list.
func (s *FileStore) ListParsed(tool string) ([]*Record, error) {
	paths, err := filepath.Glob(filepath.Join(s.parsedRoot, tool, "*_"+tool+constants.ParsedSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list parsed records for %s: %w", tool, err)
	}
	sort.Strings(paths)

	records := make([]*Record, 0, len(paths))
	for _, p := range paths {
		rec, err := readRecord(p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListRaw returns the stored stdout files for tool, sorted by contract name.
func (s *FileStore) ListRaw(tool string) ([]RawEntry, error) {
	suffix := "_" + tool + constants.RawOutputSuffix
	paths, err := filepath.Glob(filepath.Join(s.rawRoot, tool, "*"+suffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list raw outputs for %s: %w", tool, err)
	}
	sort.Strings(paths)

	entries := make([]RawEntry, 0, len(paths))
	for _, p := range paths {
		contract := strings.TrimSuffix(filepath.Base(p), suffix)
		entries = append(entries, RawEntry{
			Contract:   contract,
			Tool:       tool,
			StdoutPath: p,
			ErrorsPath: s.ErrorsPath(contract, tool),
		})
	}
	return entries, nil
}

// write stores data at path and forwards it to the mirror.
func (s *FileStore) write(ctx context.Context, path string, data []byte, contentType string) error {
	if err := atomicWrite(path, data); err != nil {
		return err
	}
	if s.mirror == nil {
		return nil
	}

	objectKey, err := s.objectKey(path)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("skipping mirror upload")
		return nil
	}
	if err := s.mirror.Put(ctx, objectKey, data, contentType); err != nil {
		zerolog.Ctx(ctx).Warn().Err(fmt.Errorf("%w: %w", sieveerrors.ErrMirrorFailed, err)).Str("key", objectKey).Msg("mirror upload failed")
	}
	return nil
}

// objectKey maps a stored path onto "raw/<tool>/<file>" or "parsed/<tool>/<file>".
func (s *FileStore) objectKey(path string) (string, error) {
	roots := []struct {
		prefix string
		root   string
	}{
		{constants.RawDir, s.rawRoot},
		{constants.ParsedDir, s.parsedRoot},
	}
	for _, r := range roots {
		rel, err := filepath.Rel(r.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return r.prefix + "/" + filepath.ToSlash(rel), nil
	}
	return "", sieveerrors.Wrapf(sieveerrors.ErrMirrorFailed, "path %s is outside the result roots", path)
}

func key(contract, tool string) string {
	return contract + "_" + tool
}

// encodeRecord renders rec with two-space indentation and without HTML escaping,
// so descriptions keep their original characters.
func encodeRecord(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is constructed internally
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", path, err)
	}
	return &rec, nil
}

// atomicWrite writes data to a file atomically using write-then-rename.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
