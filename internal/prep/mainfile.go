package prep

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MainFileSelector picks the file to analyze inside an extracted project.
// It returns dir itself when the project has no Solidity file.
type MainFileSelector interface {
	SelectMain(dir, artifactName string) string
}

// ScoreFunc rates how well a candidate file stem matches the artifact name.
// Zero means no match.
type ScoreFunc func(stem, artifactName string) int

// concreteRe requires at least one contract declaration.
var concreteRe = regexp.MustCompile(`\bcontract\s+\w+`) //nolint:gochecknoglobals // compiled once

// nonConcreteMarkers disqualify a file from being the main contract.
var nonConcreteMarkers = []string{"abstract contract", "interface ", "library "} //nolint:gochecknoglobals // fixed markers

// DefaultHelperStems mark support files that are rarely the main contract.
func DefaultHelperStems() []string {
	return []string{"helper", "util", "library", "interface", "error", "storage"}
}

// NameScorer is the default MainFileSelector.
//
// Candidates are concrete contracts whose stems avoid Helpers, unless that
// leaves nothing. The best Score wins with ties going to the larger file.
// With no positive score the largest candidate wins. Without any concrete
// contract the largest .sol file wins.
//
// Score is not normalized against file size, so a very large helper that
// slips past Helpers can still win on a size tie-break.
type NameScorer struct {
	Helpers []string
	Score   ScoreFunc
}

// NewNameScorer returns a NameScorer with the default helper stems and
// NameSimilarity scoring.
func NewNameScorer() *NameScorer {
	return &NameScorer{Helpers: DefaultHelperStems(), Score: NameSimilarity}
}

type solFile struct {
	path    string
	stem    string
	size    int64
	content string
}

// SelectMain implements MainFileSelector.
func (n *NameScorer) SelectMain(dir, artifactName string) string {
	files := listSolFiles(dir)
	if len(files) == 0 {
		return dir
	}

	var concrete []solFile
	for _, f := range files {
		if isConcrete(f.content) {
			concrete = append(concrete, f)
		}
	}
	if len(concrete) == 0 {
		return largest(files).path
	}

	candidates := n.withoutHelpers(concrete)
	if len(candidates) == 0 {
		candidates = concrete
	}

	score := n.Score
	if score == nil {
		score = NameSimilarity
	}

	var (
		best      *solFile
		bestScore int
	)
	for i := range candidates {
		c := &candidates[i]
		s := score(c.stem, artifactName)
		if s <= 0 {
			continue
		}
		if best == nil || s > bestScore || (s == bestScore && c.size > best.size) {
			best, bestScore = c, s
		}
	}
	if best != nil {
		return best.path
	}
	return largest(candidates).path
}

func (n *NameScorer) withoutHelpers(files []solFile) []solFile {
	var out []solFile
	for _, f := range files {
		stem := strings.ToLower(f.stem)
		helper := false
		for _, h := range n.Helpers {
			if strings.Contains(stem, strings.ToLower(h)) {
				helper = true
				break
			}
		}
		if !helper {
			out = append(out, f)
		}
	}
	return out
}

// NameSimilarity scores stem against artifactName after lowercasing and
// dropping '_' and '-'. Containment either way scores the shorter length;
// otherwise a common prefix of at least four characters scores its length.
func NameSimilarity(stem, artifactName string) int {
	f := normalizeName(stem)
	o := normalizeName(artifactName)
	switch {
	case f == "" || o == "":
		return 0
	case strings.Contains(o, f):
		return len(f)
	case strings.Contains(f, o):
		return len(o)
	}

	common := 0
	for common < len(f) && common < len(o) && f[common] == o[common] {
		common++
	}
	if common >= 4 {
		return common
	}
	return 0
}

func normalizeName(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("_", "", "-", "").Replace(s)
}

func isConcrete(content string) bool {
	for _, m := range nonConcreteMarkers {
		if strings.Contains(content, m) {
			return false
		}
	}
	return concreteRe.MatchString(content)
}

// largest returns the biggest file, the first one on ties.
func largest(files []solFile) solFile {
	best := files[0]
	for _, f := range files[1:] {
		if f.size > best.size {
			best = f
		}
	}
	return best
}

// listSolFiles returns every readable .sol file under dir in lexical order.
func listSolFiles(dir string) []solFile {
	var out []solFile
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".sol" {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		data, err := os.ReadFile(path) //nolint:gosec // walking an extraction dir we created
		if err != nil {
			return nil //nolint:nilerr // unreadable files are skipped
		}
		out = append(out, solFile{
			path:    path,
			stem:    strings.TrimSuffix(filepath.Base(path), ".sol"),
			size:    int64(len(data)),
			content: string(data),
		})
		return nil
	})
	return out
}

// SolFiles returns the .sol files under target, or target itself when it is
// a file.
func SolFiles(target string) []string {
	info, err := os.Stat(target)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []string{target}
	}
	files := listSolFiles(target)
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out
}
