package prep

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrz1836/sieve/internal/config"
)

// Rule names the selection rule that produced a version.
type Rule string

// Selection rules in evaluation order.
const (
	RuleLegacySyntax   Rule = "legacy-syntax"
	RuleCaretModern    Rule = "caret-modern"
	RuleOpenLowerBound Rule = "open-lower-bound"
	RuleExactHighest   Rule = "exact-highest"
	RuleDefault        Rule = "default"
)

// Selection is the chosen compiler version and the rule that chose it.
type Selection struct {
	Version string
	Rule    Rule
}

// caretRe reads the major.minor lower bound of a caret constraint.
var caretRe = regexp.MustCompile(`^\^\s*(\d+)\.(\d+)`) //nolint:gochecknoglobals // compiled once

// exactRe matches an operator-free x.y.z constraint.
var exactRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`) //nolint:gochecknoglobals // compiled once

// floorRe parses the configured modern floor.
var floorRe = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.\d+)?$`) //nolint:gochecknoglobals // compiled once

// VersionSelector picks one compiler version for a set of source files.
type VersionSelector struct {
	modernDefault string
	floorMajor    int
	floorMinor    int
	legacy        string
	cache         *ScanCache
}

// NewVersionSelector builds a selector from the solc config section. A nil
// cache gets a private one.
func NewVersionSelector(cfg config.SolcConfig, cache *ScanCache) *VersionSelector {
	if cache == nil {
		cache = NewScanCache(DefaultScanCacheSize, cfg.LegacyMarkers)
	}
	s := &VersionSelector{
		modernDefault: cfg.ModernDefault,
		legacy:        cfg.LegacyVersion,
		cache:         cache,
	}
	if m := floorRe.FindStringSubmatch(cfg.ModernFloor); m != nil {
		s.floorMajor, _ = strconv.Atoi(m[1])
		s.floorMinor, _ = strconv.Atoi(m[2])
	}
	return s
}

// Select applies the rules in order; the first match wins:
//
//  1. any file carries a legacy syntax marker: the legacy version
//  2. any caret pragma at or above the modern floor: the modern default
//  3. any ">=" or ">" pragma: the modern default
//  4. any exact x.y.z pragma: the highest of them
//  5. otherwise the modern default
func (s *VersionSelector) Select(files []string) Selection {
	for _, f := range files {
		if scan, err := s.cache.Scan(f); err == nil && scan.Legacy {
			return Selection{Version: s.legacy, Rule: RuleLegacySyntax}
		}
	}
	return s.SelectPragmas(s.cache.GatherPragmas(files))
}

// SelectPragmas applies rules 2 to 5 to already gathered pragmas.
func (s *VersionSelector) SelectPragmas(pragmas []string) Selection {
	for _, p := range pragmas {
		p = strings.TrimSpace(p)
		switch {
		case strings.HasPrefix(p, "^"):
			if s.atOrAboveFloor(p) {
				return Selection{Version: s.modernDefault, Rule: RuleCaretModern}
			}
		case strings.HasPrefix(p, ">"):
			return Selection{Version: s.modernDefault, Rule: RuleOpenLowerBound}
		}
	}

	var best string
	for _, p := range pragmas {
		p = strings.TrimSpace(p)
		if !exactRe.MatchString(p) {
			continue
		}
		if best == "" || compareTriples(p, best) > 0 {
			best = p
		}
	}
	if best != "" {
		return Selection{Version: best, Rule: RuleExactHighest}
	}
	return Selection{Version: s.modernDefault, Rule: RuleDefault}
}

func (s *VersionSelector) atOrAboveFloor(caret string) bool {
	m := caretRe.FindStringSubmatch(caret)
	if m == nil {
		return false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	if major != s.floorMajor {
		return major > s.floorMajor
	}
	return minor >= s.floorMinor
}

// compareTriples compares two x.y.z strings numerically.
func compareTriples(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := range 3 {
		x, _ := strconv.Atoi(as[i])
		y, _ := strconv.Atoi(bs[i])
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}
