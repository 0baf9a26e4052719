package prep

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/errors"
)

// Destination selects where Extract creates its output directory.
type Destination struct {
	// WorkspaceRoot places the directory under a workspace-visible root so a
	// container bind mount can see it. Empty means the process temp dir.
	WorkspaceRoot string
}

// TempDestination extracts into the process temp directory.
func TempDestination() Destination {
	return Destination{}
}

// WorkspaceDestination extracts under root.
func WorkspaceDestination(root string) Destination {
	return Destination{WorkspaceRoot: root}
}

// create makes a fresh, uniquely named directory and returns its absolute path.
func (d Destination) create() (string, error) {
	if d.WorkspaceRoot == "" {
		dir, err := os.MkdirTemp("", constants.ExtractTempPrefix)
		if err != nil {
			return "", errors.Wrap(err, "create temp extraction dir")
		}
		return dir, nil
	}

	root, err := filepath.Abs(d.WorkspaceRoot)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", d.WorkspaceRoot)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", errors.Wrapf(err, "create %s", root)
	}
	dir := filepath.Join(root, constants.ExtractWorkspacePrefix+uuid.NewString()[:8])
	if err := os.Mkdir(dir, 0o750); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	return dir, nil
}

// projectDoc is the subset of a compiler input document Extract reads.
type projectDoc struct {
	Sources map[string]struct {
		Content string `json:"content"`
	} `json:"sources"`
}

// Extract unpacks the project document stored in the file at path into a
// new directory chosen by dest and returns that directory.
//
// A document without "sources" yields an empty directory. A file with no
// opening brace or invalid JSON fails with ErrMalformedProject. Entries
// whose sanitized path would still leave the directory are skipped.
func Extract(ctx context.Context, path string, dest Destination) (string, error) {
	log := zerolog.Ctx(ctx)

	data, err := os.ReadFile(path) //nolint:gosec // path is the artifact under analysis
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}

	payload, err := locatePayload(string(data))
	if err != nil {
		return "", errors.Wrapf(err, "%s", path)
	}

	var doc projectDoc
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return "", errors.Wrapf(errors.ErrMalformedProject, "%s: %v", path, err)
	}

	dir, err := dest.create()
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(path)
	keys := make([]string, 0, len(doc.Sources))
	for k := range doc.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, logical := range keys {
		rel := Sanitize(logical, ext)
		out, ok := within(dir, rel)
		if !ok {
			log.Warn().
				Err(errors.ErrPathTraversal).
				Str("entry", logical).
				Msg("skipping project entry outside the extraction directory")
			continue
		}
		if err := writeEntry(out, doc.Sources[logical].Content); err != nil {
			_ = os.RemoveAll(dir)
			return "", err
		}
	}

	log.Debug().
		Str("source", path).
		Str("dir", dir).
		Int("files", len(keys)).
		Msg("extracted project")

	return dir, nil
}

// locatePayload finds the JSON document inside text. Export tools sometimes
// wrap the top-level object in a second pair of braces; one layer is removed.
func locatePayload(text string) (string, error) {
	start := strings.Index(text, "{{")
	if start < 0 {
		start = strings.Index(text, "{")
	}
	if start < 0 {
		return "", errors.Wrap(errors.ErrMalformedProject, "no opening brace")
	}

	payload := strings.TrimSpace(text[start:])
	if strings.HasPrefix(payload, "{{") && strings.HasSuffix(payload, "}}") {
		payload = payload[1 : len(payload)-1]
	}
	return payload, nil
}

// Sanitize turns an untrusted logical path into a relative path: separators
// become '/', drive letters and leading roots are stripped, and an empty
// result falls back to Main<ext>. Sanitize(Sanitize(p)) == Sanitize(p).
func Sanitize(rel, ext string) string {
	p := strings.ReplaceAll(rel, `\`, "/")
	for {
		before := p
		if i := strings.Index(p, ":"); i >= 0 && i < 3 {
			p = p[i+1:]
		}
		p = strings.TrimLeft(p, "/")
		if p == before {
			break
		}
	}
	if p == "" {
		return "Main" + ext
	}
	return p
}

// within joins rel onto dir and reports whether the result stays inside dir.
func within(dir, rel string) (string, bool) {
	out := filepath.Join(dir, filepath.FromSlash(rel))
	r, err := filepath.Rel(dir, out)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return out, true
}

func writeEntry(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
