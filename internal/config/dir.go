package config

import (
	"os"
	"path/filepath"
)

const (
	ConfigDirEnv = "DOTENVNG_CONFIG_DIR"
	ConfigSubdir = "dotenvng"
)

func ConfigDir() string {
	if d := os.Getenv(ConfigDirEnv); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return filepath.Join(".", ConfigSubdir)
	}
	return filepath.Join(home, ".config", ConfigSubdir)
}

const (
	UserFileName    = "config.yaml"
	ProjectFileName = ".dotenvng.yaml"
)

func UserPath() string {
	return filepath.Join(ConfigDir(), UserFileName)
}

func ProjectPath(root string) string {
	return filepath.Join(root, ProjectFileName)
}
