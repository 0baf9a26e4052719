package contract

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mrz1836/sieve/internal/errors"
)

// Discover walks root and builds an Artifact for every .sol and .rs file.
// Solidity files come first, then Rust, each in lexical path order.
// Files that fail construction are reported in errs and skipped.
func Discover(root string) (arts []*Artifact, errs []error) {
	var sol, rs []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".sol":
			sol = append(sol, path)
		case ".rs":
			rs = append(rs, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, []error{errors.Wrapf(walkErr, "walk %s", root)}
	}

	sort.Strings(sol)
	sort.Strings(rs)
	return build(append(sol, rs...))
}

// Category lists the .sol files directly inside <datasetDir>/<name>.
func Category(datasetDir, name string) (arts []*Artifact, errs []error) {
	dir := filepath.Join(datasetDir, name)
	if _, err := os.Stat(dir); err != nil {
		return nil, []error{errors.Wrapf(errors.ErrNoContracts, "category %s", dir)}
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.sol"))
	if err != nil {
		return nil, []error{errors.Wrapf(err, "glob %s", dir)}
	}
	sort.Strings(paths)
	return build(paths)
}

func build(paths []string) (arts []*Artifact, errs []error) {
	for _, p := range paths {
		a, err := New(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		arts = append(arts, a)
	}
	return arts, errs
}
