package prep

import (
	"os"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultScanCacheSize bounds the number of remembered file scans.
const DefaultScanCacheSize = 1024

// pragmaRe captures every "pragma solidity <constraint>;" at line start.
var pragmaRe = regexp.MustCompile(`(?im)^\s*pragma\s+solidity\s+([^;]+);`) //nolint:gochecknoglobals // compiled once

// FileScan holds the facts the version selector needs from one file.
type FileScan struct {
	Pragmas []string
	Legacy  bool
}

// scanKey changes whenever the file is rewritten.
type scanKey struct {
	path    string
	size    int64
	modTime int64
}

// ScanCache memoizes per-file pragma and legacy-marker scans. The same file
// is typically scanned once per tool and again across batch items that share
// an extracted dependency tree.
type ScanCache struct {
	markers []string
	cache   *lru.Cache[scanKey, FileScan]
}

// NewScanCache returns a cache holding up to size scans. Legacy markers are
// fixed for the cache's lifetime.
func NewScanCache(size int, markers []string) *ScanCache {
	if size <= 0 {
		size = DefaultScanCacheSize
	}
	c, _ := lru.New[scanKey, FileScan](size) // only fails for size <= 0
	return &ScanCache{
		markers: append([]string(nil), markers...),
		cache:   c,
	}
}

// Scan returns the scan for path, reading the file only on a cache miss.
func (c *ScanCache) Scan(path string) (FileScan, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileScan{}, err
	}
	key := scanKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if s, ok := c.cache.Get(key); ok {
		return s, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is a file selected for analysis
	if err != nil {
		return FileScan{}, err
	}
	s := scanSource(string(data), c.markers)
	c.cache.Add(key, s)
	return s, nil
}

// GatherPragmas returns every pragma constraint across files, in file order.
// Unreadable files are skipped.
func (c *ScanCache) GatherPragmas(files []string) []string {
	var out []string
	for _, f := range files {
		s, err := c.Scan(f)
		if err != nil {
			continue
		}
		out = append(out, s.Pragmas...)
	}
	return out
}

// Len reports the number of cached scans.
func (c *ScanCache) Len() int {
	return c.cache.Len()
}

func scanSource(src string, markers []string) FileScan {
	var s FileScan
	for _, m := range pragmaRe.FindAllStringSubmatch(src, -1) {
		s.Pragmas = append(s.Pragmas, strings.TrimSpace(m[1]))
	}
	for _, tok := range markers {
		if strings.Contains(src, tok) {
			s.Legacy = true
			break
		}
	}
	return s
}
