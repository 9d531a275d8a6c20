// Package workspace locates the project root and the env files below it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xmazu/dotenvng/internal/config"
	"github.com/xmazu/dotenvng/internal/storage"
)

// MarkerFiles identify a workspace root, in priority order. The project file
// comes first so a nested .dotenvng.yaml wins over an outer monorepo.
var MarkerFiles = []string{
	config.ProjectFileName,
	"pnpm-workspace.yaml",
	"pnpm-lock.yaml",
	"turbo.json",
	"lerna.json",
	"go.work",
	"settings.gradle",
	"settings.gradle.kts",
	"gradlew",
	"gradlew.bat",
	".git",
}

var markerNames = map[string]string{
	config.ProjectFileName: "dotenvng project",
	".git":                 "git repository",
}

// FindRoot returns the closest directory at or above dir holding a marker,
// or dir itself when there is none.
func FindRoot(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	for cur := start; ; {
		if FindMarker(cur) != "" {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return start, nil
		}
		cur = parent
	}
}

// HasProjectFile reports whether root holds a dotenvng project file.
func HasProjectFile(root string) bool {
	return storage.NewYAMLFile(config.ProjectPath(root)).Exists()
}

func IsWorkspace(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return FindMarker(abs) != ""
}

// FindMarker returns the highest priority marker present in root, or "".
func FindMarker(root string) string {
	for _, marker := range MarkerFiles {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return marker
		}
	}
	return ""
}

func FormatMarkerForDisplay(marker string) string {
	if marker == "" {
		return "unknown"
	}
	if name, ok := markerNames[marker]; ok {
		return name
	}
	return marker
}
