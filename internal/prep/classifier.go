package prep

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single scanned line. Minified project exports put the
// whole document on one line.
const maxLineSize = 64 << 20

// IsProjectBlob reports whether the file at path holds a serialized
// multi-file project instead of source. The first character outside any
// comment decides: '{' means a project. Unreadable files are treated as
// source.
func IsProjectBlob(path string) bool {
	f, err := os.Open(path) //nolint:gosec // path is the artifact under analysis
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	c, ok := firstCodeChar(f)
	return ok && c == '{'
}

// firstCodeChar returns the first character that is not whitespace and not
// inside a line or block comment. Block comment state carries across lines.
func firstCodeChar(r io.Reader) (byte, bool) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	inBlock := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		for line != "" {
			if inBlock {
				end := strings.Index(line, "*/")
				if end < 0 {
					break
				}
				inBlock = false
				line = strings.TrimSpace(line[end+2:])
				continue
			}

			switch {
			case strings.HasPrefix(line, "//"):
				line = ""
			case strings.HasPrefix(line, "/*"):
				inBlock = true
				line = line[2:]
			default:
				return line[0], true
			}
		}
	}
	return 0, false
}
