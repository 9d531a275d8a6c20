package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xmazu/dotenvng/internal/config"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/runenv"
	"github.com/xmazu/dotenvng/internal/source"
)

// runCapture runs `dotenvng run` with a shell script that writes its output
// to a file and returns that output.
func runCapture(t *testing.T, flags []string, script string) (string, error) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out")
	args := append([]string{"run"}, flags...)
	args = append(args, "--", "sh", "-c", script+` > "$0"`, out)
	_, err := executeCommand(t, args...)
	data, _ := os.ReadFile(out)
	return string(data), err
}

func TestRunRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on Windows due to command differences")
	}
	dir := t.TempDir()
	chdir(t, dir)
	writeEnv(t, filepath.Join(dir, ".env"), `DOTENVNG_RUN_GREETING="hello world"
DOTENVNG_RUN_HOST=localhost
DOTENVNG_RUN_URL=http://${DOTENVNG_RUN_HOST}:8080
DOTENVNG_RUN_SHARED=file
DOTENVNG_RUN_LAYER=base
`)
	writeEnv(t, filepath.Join(dir, ".env.staging"), "DOTENVNG_RUN_LAYER=staging\n")

	t.Run("requires -- before the command", func(t *testing.T) {
		_, err := executeCommand(t, "run", "--load", dir, "echo")
		if err == nil || !strings.Contains(err.Error(), "--") {
			t.Errorf("run without -- error = %v, want separator error", err)
		}
	})

	t.Run("requires a command", func(t *testing.T) {
		if _, err := executeCommand(t, "run", "--load", dir, "--"); err == nil {
			t.Error("run without a command should fail")
		}
	})

	t.Run("requires load or var", func(t *testing.T) {
		if _, err := executeCommand(t, "run", "--", "true"); err == nil {
			t.Error("run without --load and --var should fail")
		}
	})

	t.Run("passes file values", func(t *testing.T) {
		got, err := runCapture(t, []string{"--load", dir}, `printf "%s|%s" "$DOTENVNG_RUN_GREETING" "$DOTENVNG_RUN_URL"`)
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
		if want := "hello world|http://localhost:8080"; got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})

	t.Run("process environment wins", func(t *testing.T) {
		t.Setenv("DOTENVNG_RUN_SHARED", "env")
		got, err := runCapture(t, []string{"-l", dir}, `printf "%s" "$DOTENVNG_RUN_SHARED"`)
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
		if got != "env" {
			t.Errorf("output = %q, want env", got)
		}

		got, err = runCapture(t, []string{"-l", dir, "--overwrite-existing"}, `printf "%s" "$DOTENVNG_RUN_SHARED"`)
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
		if got != "file" {
			t.Errorf("output with --overwrite-existing = %q, want file", got)
		}
	})

	t.Run("environment layer", func(t *testing.T) {
		got, err := runCapture(t, []string{"-l", dir, "-e", "staging"}, `printf "%s" "$DOTENVNG_RUN_LAYER"`)
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
		if got != "staging" {
			t.Errorf("output = %q, want staging", got)
		}
	})

	t.Run("var overrides file", func(t *testing.T) {
		got, err := runCapture(t, []string{"-l", dir, "--var", "DOTENVNG_RUN_LAYER=cli", "--var", "DOTENVNG_RUN_EXTRA=1"}, `printf "%s|%s" "$DOTENVNG_RUN_LAYER" "$DOTENVNG_RUN_EXTRA"`)
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
		if got != "cli|1" {
			t.Errorf("output = %q, want cli|1", got)
		}
	})

	t.Run("var without load", func(t *testing.T) {
		got, err := runCapture(t, []string{"--var", "DOTENVNG_RUN_ONLY=yes"}, `printf "%s" "$DOTENVNG_RUN_ONLY"`)
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
		if got != "yes" {
			t.Errorf("output = %q, want yes", got)
		}
	})

	t.Run("invalid var", func(t *testing.T) {
		_, err := executeCommand(t, "run", "--var", "NOVALUE", "--", "true")
		if !errors.Is(err, runenv.ErrInvalidVar) {
			t.Errorf("run error = %v, want ErrInvalidVar", err)
		}
	})

	t.Run("missing load path", func(t *testing.T) {
		_, err := executeCommand(t, "run", "-l", filepath.Join(dir, "missing"), "--", "true")
		if !errors.Is(err, source.ErrPathNotFound) {
			t.Errorf("run error = %v, want ErrPathNotFound", err)
		}
	})

	t.Run("exit code is returned", func(t *testing.T) {
		_, err := executeCommand(t, "run", "-l", dir, "--", "sh", "-c", "exit 3")
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 3 {
			t.Errorf("run error = %v, want exit code 3", err)
		}
	})

	t.Run("missing command", func(t *testing.T) {
		_, err := executeCommand(t, "run", "-l", dir, "--", "dotenvng-command-that-does-not-exist")
		if err == nil {
			t.Error("run should fail for a missing command")
		}
	})

	t.Run("project settings apply", func(t *testing.T) {
		t.Setenv("DOTENVNG_RUN_SHARED", "env")
		writeEnv(t, config.ProjectPath(dir), "overwrite_existing: true\n")
		defer os.Remove(config.ProjectPath(dir))

		got, err := runCapture(t, []string{"-l", "."}, `printf "%s" "$DOTENVNG_RUN_SHARED"`)
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
		if got != "file" {
			t.Errorf("output = %q, want file", got)
		}
	})
}

func TestRunParseErrors(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on Windows due to command differences")
	}
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "broken.env")
	writeEnv(t, path, "DOTENVNG_RUN_OK=1\nORPHAN\n")

	got, err := runCapture(t, []string{"-l", path}, `printf "%s" "$DOTENVNG_RUN_OK"`)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if got != "1" {
		t.Errorf("output = %q, want 1", got)
	}

	if _, err := executeCommand(t, "run", "-l", path, "--strict", "--", "true"); err == nil {
		t.Error("run --strict should fail on parse errors")
	}

	if _, err := executeCommand(t, "run", "-l", path, "--strict", "--allow-orphan-keys", "--", "true"); err != nil {
		t.Errorf("run --strict --allow-orphan-keys error = %v", err)
	}
}

func TestRunRedact(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on Windows due to command differences")
	}
	dir := t.TempDir()
	chdir(t, dir)
	writeEnv(t, filepath.Join(dir, ".env"), "DOTENVNG_OUT_KEY=secret-out\n")

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	_, err = executeCommand(t, "run", "-l", dir, "--redact", "--", "sh", "-c", "echo $DOTENVNG_OUT_KEY")
	_ = w.Close()
	var buf strings.Builder
	_, _ = io.Copy(&buf, r)

	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[REDACTED:DOTENVNG_OUT_KEY]") {
		t.Errorf("output should contain [REDACTED:DOTENVNG_OUT_KEY], got %q", out)
	}
	if strings.Contains(out, "secret-out") {
		t.Error("output must not contain the plaintext value")
	}
}

func TestRunWithWatchExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on Windows due to command differences")
	}
	resetFlags(rootCmd)
	dir := t.TempDir()
	writeEnv(t, filepath.Join(dir, ".env"), "A=1\n")

	err := runWithWatch(map[string]string{}, dir, envfile.DefaultOptions(), "sh", []string{"-c", "exit 4"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 4 {
		t.Errorf("runWithWatch() error = %v, want exit code 4", err)
	}

	if err := runWithWatch(map[string]string{}, dir, envfile.DefaultOptions(), "true", nil); err != nil {
		t.Errorf("runWithWatch() error = %v", err)
	}
}

func TestWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.env")
	writeEnv(t, file, "")

	opts := envfile.DefaultOptions()
	opts.Environment = "dev"
	want := []string{filepath.Join(dir, ".env"), filepath.Join(dir, ".env.dev"), filepath.Join(dir, ".env.local")}
	if diff := cmp.Diff(want, watchedFiles(dir, opts)); diff != "" {
		t.Errorf("watchedFiles(dir) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{file}, watchedFiles(file, opts)); diff != "" {
		t.Errorf("watchedFiles(file) mismatch (-want +got):\n%s", diff)
	}
}
