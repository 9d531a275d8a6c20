package workspace

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xmazu/dotenvng/internal/ignore"
	"github.com/xmazu/dotenvng/internal/logging"
	"github.com/xmazu/dotenvng/internal/source"
)

var DefaultExcludeDirs = []string{
	".git",
	"node_modules",
	".cache",
	".turbo",
	".next",
	"vendor",
}

// ListOptions narrows a listing. Exclude holds gitignore-style globs
// relative to the root; NoGitignore skips the root .gitignore.
type ListOptions struct {
	Exclude     []string
	NoGitignore bool
}

// ListEnvFiles returns every env layer below root as absolute paths, in
// walk order.
func ListEnvFiles(root string, opts ListOptions) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	gitignore := &ignore.Matcher{}
	if !opts.NoGitignore {
		if gitignore, err = ignore.LoadGitignore(root); err != nil {
			return nil, err
		}
	}
	excludes := ignore.New(opts.Exclude...)

	excludeSet := make(map[string]bool)
	for _, d := range DefaultExcludeDirs {
		excludeSet[d] = true
	}

	log := logging.For("workspace")
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			// Ignored directories are skipped; ignored env files are still
			// listed since a gitignored .env.local is the common case.
			if excludeSet[d.Name()] || excludes.ShouldIgnore(rel, true) || gitignore.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsEnvFilename(d.Name()) {
			return nil
		}
		if excludes.ShouldIgnore(rel, false) {
			log.WithField("path", rel).Debug("excluded by settings")
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"root": root, "files": len(files), "gitignore_rules": gitignore.Len()}).Debug("listed env files")
	return files, nil
}

// Layer is one directory of env files, in merge order.
type Layer struct {
	Dir   string
	Files []string
}

// GroupLayers groups files by directory and orders each group the way a
// directory load merges it.
func GroupLayers(files []string) []Layer {
	byDir := make(map[string][]string)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], f)
	}
	sort.Strings(dirs)

	layers := make([]Layer, 0, len(dirs))
	for _, dir := range dirs {
		group := byDir[dir]
		sort.Slice(group, func(i, j int) bool {
			return lessLayer(filepath.Base(group[i]), filepath.Base(group[j]))
		})
		layers = append(layers, Layer{Dir: dir, Files: group})
	}
	return layers
}

// LayerRank orders env file names: base first, environment files next and
// local overrides last.
func LayerRank(name string) int {
	switch {
	case name == source.BaseFile:
		return 0
	case name == source.LocalFile:
		return 2
	default:
		return 1
	}
}

func lessLayer(a, b string) bool {
	if ra, rb := LayerRank(a), LayerRank(b); ra != rb {
		return ra < rb
	}
	return a < b
}

// Environment returns the environment name of an env file name, "" for the
// base and local layers.
func Environment(name string) string {
	if LayerRank(name) != 1 {
		return ""
	}
	return strings.TrimPrefix(name, source.BaseFile+".")
}
