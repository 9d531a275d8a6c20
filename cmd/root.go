package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xmazu/dotenvng/internal/config"
	"github.com/xmazu/dotenvng/internal/logging"
	"github.com/xmazu/dotenvng/internal/workspace"
)

var rootCmd = &cobra.Command{
	Use:           "dotenvng",
	Short:         "Typed, layered .env files for any command",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `dotenvng - load .env files with typed values, interpolation and layering.

A directory is loaded as layers: .env, then .env.<environment> when an
environment is selected, then .env.local. Later layers win. Values like 42,
true or null are typed, quoted values stay strings, and ${NAME} references are
resolved against earlier keys and the process environment.

EXAMPLES:

  dotenvng run --load . -- node server.js
  dotenvng run --load . --environment production -- ./deploy.sh
  dotenvng run --var PORT=8080 --var DEBUG=true -- go run .
  dotenvng get DATABASE_URL
  dotenvng get --format yaml
  dotenvng check
  dotenvng ls

SETTINGS:

  Defaults can be set in ~/.config/dotenvng/config.yaml, in .dotenvng.yaml at
  the workspace root (see 'dotenvng init') and through DOTENV_* variables, e.g.
  DOTENV_OVERWRITE_EXISTING=true. Flags win over all of them.`,
	PersistentPreRunE: loadSettings,
}

var (
	logLevel  string
	logFormat string

	settings *config.Settings
)

func init() {
	rootCmd.SetVersionTemplate("dotenvng version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.DefaultFormat, "Log format: text or json")
}

// SetVersion sets the version string shown by --version (e.g. from ldflags).
func SetVersion(v string) { rootCmd.Version = v }

// ExitError carries the exit code of a child process or a failed check. It
// is not printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	root, err := workspace.FindRoot(".")
	if err != nil {
		return fmt.Errorf("find workspace root: %w", err)
	}
	s, err := config.Load(root)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") || s.LogLevel == nil {
		s.LogLevel = &logLevel
	}
	if cmd.Flags().Changed("log-format") || s.LogFormat == nil {
		s.LogFormat = &logFormat
	}
	logging.SetOutput(cmd.ErrOrStderr())
	if err := s.ConfigureLogging(); err != nil {
		return err
	}
	settings = s
	return nil
}

func currentSettings() *config.Settings {
	if settings == nil {
		return &config.Settings{}
	}
	return settings
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
