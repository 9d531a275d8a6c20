package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/logging"
	"github.com/xmazu/dotenvng/internal/runenv"
	"github.com/xmazu/dotenvng/internal/source"
	"github.com/xmazu/dotenvng/internal/tui"
	"github.com/xmazu/dotenvng/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "Run a command with values from .env files",
	Long: `Load a .env file or a layered directory and run the command with the values
added to its environment.

A directory loads .env, .env.<environment> (with --environment) and .env.local,
later layers winning. --var KEY=value adds or replaces a value after the files
are loaded and is typed like a file line. Values already in the process
environment win unless --overwrite-existing is set; optional keys (KEY?=value)
never replace them.

Parse errors are reported on stderr and the bad lines skipped; --strict makes
them fatal. Dev servers (next dev, vite, npm run dev, ...) are restarted when a
loaded file changes; disable with --no-watch. --redact replaces loaded values in
the command output with [REDACTED:KEY].`,
	Example: `  dotenvng run --load . -- node server.js
  dotenvng run -l config/.env.test --var DEBUG=true -- go test ./...`,
	RunE: runRun,
}

var (
	runParse   parseFlags
	runVars    []string
	runRedact  bool
	runNoWatch bool
	runStrict  bool
)

func init() {
	runParse.register(runCmd, "Path to a .env file or a directory of layered .env files")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Add or replace a value, KEY=value (can be repeated)")
	runCmd.Flags().BoolVar(&runRedact, "redact", false, "Redact loaded values in command output with [REDACTED:KEY]")
	runCmd.Flags().BoolVar(&runNoWatch, "no-watch", false, "Disable auto-restart of dev servers on .env changes")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Fail when a loaded file has parse errors")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if cmd != nil && cmd.ArgsLenAtDash() != 0 {
		return fmt.Errorf("the command must follow --. Use: dotenvng run --load . -- your-command")
	}
	if len(args) == 0 {
		return fmt.Errorf("no command specified. Use: dotenvng run --load . -- your-command")
	}
	if runParse.load == "" && len(runVars) == 0 {
		return fmt.Errorf("nothing to load: set --load or at least one --var")
	}

	opts := runParse.options(cmd)
	path := ""
	if runParse.load != "" {
		var err error
		if path, err = runenv.ResolveEnvPath(runParse.load, ""); err != nil {
			return fmt.Errorf("resolve %s: %w", runParse.load, err)
		}
	}

	env, err := loadRunEnv(path, opts)
	if err != nil {
		return err
	}

	command := args[0]
	cmdArgs := args[1:]
	line := strings.TrimSpace(command + " " + strings.Join(cmdArgs, " "))
	if path == "" || runNoWatch || !runenv.IsDevServerCommand(line) {
		return runOnce(env, command, cmdArgs)
	}
	return runWithWatch(env, path, opts, command, cmdArgs)
}

// loadRunEnv resolves path (if any), applies the --var overlay and returns
// the values to add to the child environment.
func loadRunEnv(path string, opts envfile.Options) (map[string]string, error) {
	opts.Base = envfile.Environ()

	result := envfile.NewResult()
	if path != "" {
		var err error
		if result, err = source.Resolve(path, opts); err != nil {
			return nil, err
		}
	}
	if len(result.Errors) > 0 {
		if runStrict {
			return nil, fmt.Errorf("%s in %s", tui.Count(len(result.Errors), "parse error"), path)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s %s %s\n", tui.Warning("Warning:"), tui.Location(e.File, e.Line), e.Kind.Description())
		}
	}

	optional, err := runenv.MergeOverlayEnv(result.Data, runVars, opts)
	if err != nil {
		return nil, err
	}
	result.Optional = append(result.Optional, optional...)
	if opts.Normalize && len(runVars) > 0 {
		result.Data = envfile.NormalizeKeys(result.Data)
	}

	values := runenv.FileValues(result.Data, result.Optional, opts)
	logging.For("run").WithField("keys", logging.Keys(result.Data.Keys())).Debug("environment loaded")
	return values, nil
}

func watchedFiles(path string, opts envfile.Options) []string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}
	}
	return source.Candidates(path, opts.Environment)
}

func runOnce(env map[string]string, command string, args []string) error {
	var exitCode int
	var err error
	if runRedact {
		exitCode, err = runenv.RunWithEnvRedactedFromMap(env, "", command, args)
	} else {
		exitCode, err = runenv.RunWithEnvFromMap(env, "", command, args)
	}
	if err != nil {
		if exitCode >= 0 {
			return &ExitError{Code: exitCode}
		}
		return err
	}
	return nil
}

func runWithWatch(env map[string]string, path string, opts envfile.Options, command string, args []string) error {
	log := logging.For("run")
	fw, err := watch.NewFileWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	for _, f := range watchedFiles(path, opts) {
		if err := fw.Add(f); err != nil {
			fmt.Fprintf(os.Stderr, "%s could not watch %s: %v\n", tui.Warning("Warning:"), f, err)
		}
	}
	changes := fw.Start()

	runner := &runenv.ProcessRunner{
		Command: command,
		Args:    args,
		Env:     env,
		Redact:  runRedact,
	}
	if err := runner.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if runner.Running() {
				_ = runner.Stop()
			}
			if sig == syscall.SIGTERM {
				return &ExitError{Code: 143}
			}
			return &ExitError{Code: 130}

		case <-changes:
			fmt.Fprintf(os.Stderr, "⚡ .env changed (%s watched), restarting...\n", tui.Count(len(fw.Files()), "file"))

			newEnv, err := loadRunEnv(path, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s reloading %s: %v\n", tui.Error("Error:"), path, err)
				continue
			}
			if runner.Running() {
				if err := runner.Stop(); err != nil {
					log.WithError(err).Warn("stop failed")
				}
			}
			runner.Env = newEnv
			if err := runner.Start(); err != nil {
				return fmt.Errorf("restart command: %w", err)
			}

		case <-runner.Done():
			if err := runner.Wait(); err != nil {
				if code := runner.ExitCode(); code >= 0 {
					return &ExitError{Code: code}
				}
				return err
			}
			return nil
		}
	}
}
