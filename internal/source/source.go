// Package source turns a filesystem path into a parse result. A file is
// parsed directly; a directory is resolved as layered env files.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/logging"
)

const (
	BaseFile  = ".env"
	LocalFile = ".env.local"
)

var (
	ErrPathNotFound = errors.New("path does not exist")
	ErrInvalidPath  = errors.New("invalid path")
)

func EnvironmentFile(environment string) string {
	return BaseFile + "." + environment
}

// Candidates lists the files of a layered directory in merge order: base,
// environment specific (when set), local overrides.
func Candidates(dir, environment string) []string {
	paths := []string{filepath.Join(dir, BaseFile)}
	if environment != "" {
		paths = append(paths, filepath.Join(dir, EnvironmentFile(environment)))
	}
	return append(paths, filepath.Join(dir, LocalFile))
}

// Resolve parses the file or layered directory at path. Missing layers are
// skipped; a missing path is an error.
func Resolve(path string, opts envfile.Options) (*envfile.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	switch {
	case info.Mode().IsRegular():
		return ParseFile(path, opts)
	case info.IsDir():
		return resolveDir(path, opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
}

// Values is Resolve without errors and optional keys.
func Values(path string, opts envfile.Options) (*envfile.Data, error) {
	result, err := Resolve(path, opts)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

func ParseFile(path string, opts envfile.Options) (*envfile.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return envfile.Parse(string(data), path, opts), nil
}

func resolveDir(dir string, opts envfile.Options) (*envfile.Result, error) {
	log := logging.For("source")
	paths := Candidates(dir, opts.Environment)
	log.WithField("paths", paths).Debug("resolving directory")

	merged := envfile.NewResult()
	for _, p := range paths {
		result, err := ParseFile(p, opts)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.WithField("path", p).Debug("skipping missing file")
				continue
			}
			return nil, err
		}
		log.WithFields(logrus.Fields{"path": p, "keys": result.Data.Len(), "errors": len(result.Errors)}).Debug("merged file")
		merged.Merge(result)
	}
	return merged, nil
}
