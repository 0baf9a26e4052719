package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sieve/internal/config"
	sieveerrors "github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/parser"
	"github.com/mrz1836/sieve/internal/result"
	"github.com/mrz1836/sieve/internal/tool"
)

const twoHighOneMedium = `{"success": true, "error": null, "results": {"detectors": [
  {"check": "reentrancy-eth", "impact": "High", "confidence": "Medium", "description": "a <b> & c"},
  {"check": "arbitrary-send-eth", "impact": "High", "confidence": "High", "description": "b"},
  {"check": "divide-before-multiply", "impact": "Medium", "confidence": "Medium", "description": "c"}
]}}`

func testCtx() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

type putCall struct {
	key         string
	content     string
	contentType string
}

type fakeMirror struct {
	mu    sync.Mutex
	calls []putCall
	err   error
}

func (m *fakeMirror) Put(_ context.Context, key string, content []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, putCall{key: key, content: string(content), contentType: contentType})
	return m.err
}

func newTestStore(t *testing.T, opts ...Option) *FileStore {
	t.Helper()
	root := t.TempDir()
	return NewFileStore(filepath.Join(root, "raw"), filepath.Join(root, "parsed"), opts...)
}

func parsedResult(t *testing.T) *result.AnalysisResult {
	t.Helper()
	r := result.New("Vault", "/src/Vault.sol", "slither", true, 2500*time.Millisecond, twoHighOneMedium, "compiling\n")
	r.Parsed = parser.SlitherReducer{}.Parse(r.RawStdout, r.RawStderr)
	return r
}

func TestFileStore_Paths(t *testing.T) {
	s := NewFileStore("/r/raw", "/r/parsed")

	assert.Equal(t, filepath.Join("/r/raw", "slither", "Vault_slither.json"), s.RawPath("Vault", "slither"))
	assert.Equal(t, filepath.Join("/r/raw", "slither", "Vault_slither_errors.txt"), s.ErrorsPath("Vault", "slither"))
	assert.Equal(t, filepath.Join("/r/parsed", "slither", "Vault_slither_parsed.json"), s.ParsedPath("Vault", "slither"))
}

func TestFileStore_SaveRaw(t *testing.T) {
	s := newTestStore(t)
	r := parsedResult(t)

	require.NoError(t, s.SaveRaw(testCtx(), r))

	stdout, err := os.ReadFile(s.RawPath("Vault", "slither"))
	require.NoError(t, err)
	assert.Equal(t, twoHighOneMedium, string(stdout))

	stderr, err := os.ReadFile(s.ErrorsPath("Vault", "slither"))
	require.NoError(t, err)
	assert.Equal(t, "compiling\n", string(stderr))
}

func TestFileStore_SaveRaw_SkipsEmptyStreams(t *testing.T) {
	s := newTestStore(t)

	onlyStderr := result.New("Broken", "/src/Broken.sol", "slither", false, time.Second, "", "Slither timed out after 600s")
	require.NoError(t, s.SaveRaw(testCtx(), onlyStderr))
	assert.NoFileExists(t, s.RawPath("Broken", "slither"))
	assert.FileExists(t, s.ErrorsPath("Broken", "slither"))

	nothing := result.New("Quiet", "/src/Quiet.sol", "slither", false, 0, "", "")
	require.NoError(t, s.SaveRaw(testCtx(), nothing))
	assert.NoFileExists(t, s.RawPath("Quiet", "slither"))
	assert.NoFileExists(t, s.ErrorsPath("Quiet", "slither"))
}

func TestFileStore_SaveParsed(t *testing.T) {
	s := newTestStore(t)
	r := parsedResult(t)

	require.NoError(t, s.SaveParsed(testCtx(), r))

	data, err := os.ReadFile(s.ParsedPath("Vault", "slither"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"contract\": \"Vault\""), "record is indented by two spaces")
	assert.Contains(t, string(data), "a <b> & c", "html characters are not escaped")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Vault", doc["contract"])
	assert.Equal(t, "slither", doc["tool"])
	assert.InDelta(t, 2.5, doc["execution_time"], 1e-9)

	analysis, ok := doc["analysis"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, analysis["total_findings"], 0)
	assert.Equal(t, map[string]any{
		"High": 2.0, "Medium": 1.0, "Low": 0.0, "Informational": 0.0, "Optimization": 0.0,
	}, analysis["findings_by_severity"])
}

func TestFileStore_SaveParsed_NoReport(t *testing.T) {
	s := newTestStore(t)
	r := result.New("Vault", "/src/Vault.sol", "slither", true, time.Second, "{}", "")

	require.NoError(t, s.SaveParsed(testCtx(), r))
	assert.NoFileExists(t, s.ParsedPath("Vault", "slither"))
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	first := parsedResult(t)
	require.NoError(t, s.SaveParsed(testCtx(), first))

	second := result.New("Vault", "/src/Vault.sol", "slither", true, time.Second, "", "")
	second.Parsed = parser.Empty("No output from Slither")
	require.NoError(t, s.SaveParsed(testCtx(), second))

	rec, err := s.LoadParsed("Vault", "slither")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Analysis.TotalFindings)
	assert.Equal(t, "No output from Slither", rec.Analysis.ErrorMessage())
}

func TestFileStore_LoadParsed_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadParsed("Nope", "slither")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileStore_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(testCtx())
	cancel()

	require.ErrorIs(t, s.SaveRaw(ctx, parsedResult(t)), context.Canceled)
	require.ErrorIs(t, s.SaveParsed(ctx, parsedResult(t)), context.Canceled)
	assert.NoDirExists(t, s.RawRoot())
}

func TestFileStore_ListRawAndParsed(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		r := result.New(name, "/src/"+name+".sol", "slither", true, time.Second, twoHighOneMedium, "warn")
		r.Parsed = parser.SlitherReducer{}.Parse(r.RawStdout, "")
		require.NoError(t, s.SaveRaw(testCtx(), r))
		require.NoError(t, s.SaveParsed(testCtx(), r))
	}

	raw, err := s.ListRaw("slither")
	require.NoError(t, err)
	require.Len(t, raw, 3)
	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, []string{raw[0].Contract, raw[1].Contract, raw[2].Contract})
	assert.Equal(t, s.ErrorsPath("Alpha", "slither"), raw[0].ErrorsPath)

	parsed, err := s.ListParsed("slither")
	require.NoError(t, err)
	require.Len(t, parsed, 3)
	assert.Equal(t, "Alpha", parsed[0].Contract)
	assert.Equal(t, 3, parsed[2].Analysis.TotalFindings)

	none, err := s.ListParsed("mythril")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileStore_Mirror(t *testing.T) {
	m := &fakeMirror{}
	s := newTestStore(t, WithMirror(m))
	r := parsedResult(t)

	require.NoError(t, s.SaveRaw(testCtx(), r))
	require.NoError(t, s.SaveParsed(testCtx(), r))

	require.Len(t, m.calls, 3)
	assert.Equal(t, "raw/slither/Vault_slither.json", m.calls[0].key)
	assert.Equal(t, contentTypeJSON, m.calls[0].contentType)
	assert.Equal(t, twoHighOneMedium, m.calls[0].content)
	assert.Equal(t, "raw/slither/Vault_slither_errors.txt", m.calls[1].key)
	assert.Equal(t, contentTypeText, m.calls[1].contentType)
	assert.Equal(t, "parsed/slither/Vault_slither_parsed.json", m.calls[2].key)
}

func TestFileStore_MirrorFailureKeepsLocalWrite(t *testing.T) {
	m := &fakeMirror{err: errors.New("bucket unreachable")} //nolint:err113 // test fixture
	s := newTestStore(t, WithMirror(m))

	require.NoError(t, s.SaveParsed(testCtx(), parsedResult(t)))
	assert.FileExists(t, s.ParsedPath("Vault", "slither"))
	assert.Len(t, m.calls, 1)
}

func TestNewObjectMirror_Validation(t *testing.T) {
	valid := config.MirrorConfig{
		Enabled:   true,
		Endpoint:  "localhost:9000",
		Bucket:    "results",
		AccessKey: "minio",
		SecretKey: "minio123",
		Prefix:    "/runs/2024/",
	}

	m, err := NewObjectMirror(valid)
	require.NoError(t, err)
	assert.Equal(t, defaultRegion, m.region)
	assert.Equal(t, "runs/2024/raw/slither/A_slither.json", m.ObjectKey("raw/slither/A_slither.json"))

	tests := []struct {
		name   string
		mutate func(*config.MirrorConfig)
	}{
		{"missing endpoint", func(c *config.MirrorConfig) { c.Endpoint = " " }},
		{"missing access key", func(c *config.MirrorConfig) { c.AccessKey = "" }},
		{"missing secret key", func(c *config.MirrorConfig) { c.SecretKey = "" }},
		{"missing bucket", func(c *config.MirrorConfig) { c.Bucket = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			_, err := NewObjectMirror(cfg)
			require.ErrorIs(t, err, sieveerrors.ErrConfigInvalidStore)
		})
	}
}

func TestObjectMirror_NoPrefix(t *testing.T) {
	m := &ObjectMirror{}
	assert.Equal(t, "parsed/slither/A_slither_parsed.json", m.ObjectKey("parsed/slither/A_slither_parsed.json"))
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{Paths: config.PathsConfig{ResultsDir: "out"}}

	s, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "raw"), s.RawRoot())
	assert.Equal(t, filepath.Join("out", "parsed"), s.ParsedRoot())
	assert.Nil(t, s.mirror)

	cfg.Store.Mirror = config.MirrorConfig{Enabled: true, Endpoint: "localhost:9000", Bucket: "b", AccessKey: "k", SecretKey: "s"}
	s, err = FromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.mirror)

	cfg.Store.Mirror.Bucket = ""
	_, err = FromConfig(cfg)
	require.ErrorIs(t, err, sieveerrors.ErrConfigInvalidStore)
}

func TestReparse(t *testing.T) {
	s := newTestStore(t)
	r := parsedResult(t)
	r.Address = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	require.NoError(t, s.SaveRaw(testCtx(), r))
	require.NoError(t, s.SaveParsed(testCtx(), r))

	fresh := result.New("Fresh", "/src/Fresh.sol", "slither", true, time.Second, "not json", "")
	require.NoError(t, s.SaveRaw(testCtx(), fresh))

	records, err := Reparse(testCtx(), s, tool.KindSlither)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Fresh", records[0].Contract)
	assert.Zero(t, records[0].ExecutionTime)
	assert.Contains(t, records[0].Analysis.ErrorMessage(), "Invalid JSON")

	assert.Equal(t, "Vault", records[1].Contract)
	assert.InDelta(t, 2.5, records[1].ExecutionTime, 1e-9, "previous execution time is kept")
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", records[1].Address)
	assert.Empty(t, records[0].Address)
	assert.Equal(t, 3, records[1].Analysis.TotalFindings)

	stored, err := s.LoadParsed("Fresh", "slither")
	require.NoError(t, err)
	assert.Equal(t, "slither", stored.Tool)
}

func TestReparse_UnknownTool(t *testing.T) {
	_, err := Reparse(testCtx(), newTestStore(t), tool.Kind("mythril"))
	require.ErrorIs(t, err, sieveerrors.ErrUnknownTool)
}
