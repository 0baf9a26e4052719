package prep

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/mrz1836/sieve/internal/errors"
)

// Remap binds an import alias to a directory.
type Remap struct {
	Alias string
	Dir   string
}

// String renders the remap the way the analysis tool expects: alias=dir.
func (r Remap) String() string {
	return r.Alias + "=" + r.Dir
}

// ParseRemap parses a user-supplied alias=dir remap.
func ParseRemap(s string) (Remap, error) {
	alias, dir, ok := strings.Cut(strings.TrimSpace(s), "=")
	alias = strings.TrimSpace(alias)
	dir = strings.TrimSpace(dir)
	if !ok || alias == "" || dir == "" {
		return Remap{}, errors.Wrapf(errors.ErrInvalidRemap, "%q", s)
	}
	return Remap{Alias: alias, Dir: dir}, nil
}

// ParseRemaps parses every entry of ss, stopping at the first invalid one.
func ParseRemaps(ss []string) ([]Remap, error) {
	out := make([]Remap, 0, len(ss))
	for _, s := range ss {
		r, err := ParseRemap(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// JoinRemaps renders remaps as one space-separated option value.
func JoinRemaps(remaps []Remap) string {
	parts := make([]string, len(remaps))
	for i, r := range remaps {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// conventionalDirs always get a remap when present at the project root.
var conventionalDirs = []string{"src", "contracts", "lib"} //nolint:gochecknoglobals // fixed layout names

// importRe captures the double-quoted path of an import statement.
var importRe = regexp.MustCompile(`import\s+.*?"([^"]+)"`) //nolint:gochecknoglobals // compiled once

// ResolveRemaps proposes remaps for an extracted project rooted at root.
//
// Conventional directories come first as "<name>/=<dir>/". Then every
// non-relative import alias found in the project's .sol files is bound to
// the first existing of lib/<alias>, node_modules/<alias> or <alias>, in
// lexical alias order. Aliases with no directory get no remap.
func ResolveRemaps(root string) []Remap {
	if !isDir(root) {
		return nil
	}

	var remaps []Remap
	for _, name := range conventionalDirs {
		dir := filepath.Join(root, name)
		if isDir(dir) {
			remaps = append(remaps, Remap{Alias: name + "/", Dir: dir + "/"})
		}
	}

	for _, alias := range importAliases(root) {
		for _, candidate := range []string{
			filepath.Join(root, "lib", alias),
			filepath.Join(root, "node_modules", alias),
			filepath.Join(root, alias),
		} {
			if isDir(candidate) {
				remaps = append(remaps, Remap{Alias: alias, Dir: candidate})
				break
			}
		}
	}
	return remaps
}

// importAliases returns the sorted first path segments of non-relative
// imports across every .sol file under root.
func importAliases(root string) []string {
	seen := make(map[string]struct{})
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".sol" {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		data, err := os.ReadFile(path) //nolint:gosec // walking an extraction dir we created
		if err != nil {
			return nil //nolint:nilerr // unreadable files are skipped
		}
		for _, m := range importRe.FindAllStringSubmatch(string(data), -1) {
			imp := m[1]
			if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") {
				continue
			}
			alias, _, ok := strings.Cut(imp, "/")
			if !ok || slices.Contains(conventionalDirs, alias) {
				continue
			}
			seen[alias] = struct{}{}
		}
		return nil
	})

	aliases := make([]string, 0, len(seen))
	for a := range seen {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
