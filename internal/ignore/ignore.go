// Package ignore decides which paths a workspace listing skips, from
// .gitignore rules and configured exclude globs.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type rule struct {
	pattern string // doublestar, forward slashes
	dirOnly bool   // trailing slash
	anchor  bool   // leading slash
}

// Matcher holds gitignore-style rules. The zero value and nil ignore
// nothing.
type Matcher struct {
	rules []rule
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	dirOnly := strings.HasSuffix(line, "/")
	line = strings.TrimSuffix(line, "/")
	anchor := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return rule{}, false
	}
	return rule{pattern: filepath.ToSlash(line), dirOnly: dirOnly, anchor: anchor}, true
}

func parse(r io.Reader) ([]rule, error) {
	var rules []rule
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if rl, ok := parseRule(scanner.Text()); ok {
			rules = append(rules, rl)
		}
	}
	return rules, scanner.Err()
}

// New builds a matcher from gitignore-style lines.
func New(lines ...string) *Matcher {
	m := &Matcher{}
	m.Add(lines...)
	return m
}

func (m *Matcher) Add(lines ...string) {
	for _, l := range lines {
		if rl, ok := parseRule(l); ok {
			m.rules = append(m.rules, rl)
		}
	}
}

func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// LoadGitignore reads root/.gitignore. It returns an empty matcher when the
// file does not exist.
func LoadGitignore(root string) (*Matcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	path := filepath.Join(absRoot, ".gitignore")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Matcher{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rules, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &Matcher{rules: rules}, nil
}

// ShouldIgnore reports whether relPath, relative to the root the rules
// belong to, is ignored.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	if m.Len() == 0 {
		return false
	}

	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "/")
	for _, r := range m.rules {
		if r.matches(relPath, isDir) {
			return true
		}
	}
	return false
}

func (r rule) matches(relPath string, isDir bool) bool {
	if r.anchor {
		if relPath == r.pattern || strings.HasPrefix(relPath, r.pattern+"/") {
			return !r.dirOnly || isDir || strings.HasPrefix(relPath, r.pattern+"/")
		}
		return false
	}

	if r.dirOnly && !isDir {
		// A file is ignored by a directory rule only through a parent.
		under := strings.TrimPrefix(r.pattern, "**/")
		return under != "" && (strings.Contains(relPath, "/"+under+"/") || strings.HasPrefix(relPath, under+"/"))
	}

	if matched, err := doublestar.Match(r.pattern, relPath); err == nil && matched {
		return true
	}
	// Unanchored patterns without a slash match the base name at any depth.
	if !strings.Contains(r.pattern, "/") {
		if matched, err := doublestar.Match(r.pattern, pathBase(relPath)); err == nil && matched {
			return true
		}
	}
	return r.dirOnly && strings.HasPrefix(relPath, r.pattern+"/")
}

func pathBase(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
