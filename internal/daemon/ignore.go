package daemon

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// alwaysIgnored are skipped even without a .gitignore.
var alwaysIgnored = []string{".git", "node_modules", "tmp", "dist"}

// IgnoreMatcher filters watch events using gitignore rules rooted at a directory.
type IgnoreMatcher struct {
	root     string
	matcher  gitignore.Matcher
	excluded []string
}

// LoadIgnore reads root/.gitignore (if present) on top of the built-in patterns.
func LoadIgnore(root string) (*IgnoreMatcher, error) {
	patterns := make([]gitignore.Pattern, 0, len(alwaysIgnored))
	for _, p := range alwaysIgnored {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	switch {
	case err == nil:
		patterns = append(patterns, parsePatterns(data)...)
	case !os.IsNotExist(err):
		return nil, err
	}
	return &IgnoreMatcher{root: root, matcher: gitignore.NewMatcher(patterns)}, nil
}

func parsePatterns(data []byte) []gitignore.Pattern {
	var out []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, gitignore.ParsePattern(line, nil))
	}
	return out
}

// Exclude ignores each path and everything below it, wherever it lives.
// Relative paths are resolved against the root; empty ones are skipped.
func (m *IgnoreMatcher) Exclude(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.root, p)
		}
		m.excluded = append(m.excluded, filepath.Clean(p))
	}
}

// Ignored reports whether path (absolute or relative to the root) is ignored.
// Paths outside the root are ignored only when excluded.
func (m *IgnoreMatcher) Ignored(path string, isDir bool) bool {
	if m == nil {
		return false
	}
	if m.isExcluded(path) {
		return true
	}
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(m.root, path)
		if err != nil || !filepath.IsLocal(r) {
			return false
		}
		rel = r
	}
	if rel == "." || rel == "" {
		return false
	}
	return m.matcher.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

func (m *IgnoreMatcher) isExcluded(path string) bool {
	if len(m.excluded) == 0 {
		return false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.root, path)
	}
	path = filepath.Clean(path)
	for _, ex := range m.excluded {
		if path == ex {
			return true
		}
		if r, err := filepath.Rel(ex, path); err == nil && filepath.IsLocal(r) {
			return true
		}
	}
	return false
}
