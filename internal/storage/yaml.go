// Package storage reads and writes the YAML files dotenvng keeps its
// settings in.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("file not found")

type YAMLFile struct {
	path string
}

func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Exists reports whether the file is present.
func (y *YAMLFile) Exists() bool {
	_, err := os.Stat(y.path)
	return err == nil
}

// Load decodes the file into dest. A missing file yields ErrNotFound.
func (y *YAMLFile) Load(dest any) error {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, y.path)
		}
		return fmt.Errorf("read %s: %w", y.path, err)
	}
	return decode(y.path, data, dest)
}

// LoadIfExists is Load that leaves dest untouched when the file is missing.
// It reports whether the file was read.
func (y *YAMLFile) LoadIfExists(dest any) (bool, error) {
	err := y.Load(dest)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func decode(path string, data []byte, dest any) error {
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (y *YAMLFile) SaveWithPerm(data any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(y.path), 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	if err := os.WriteFile(y.path, out, perm); err != nil {
		return fmt.Errorf("write %s: %w", y.path, err)
	}
	return nil
}
