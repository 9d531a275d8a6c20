// Package runenv turns parsed env values into a process environment and
// runs commands with it.
package runenv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/xmazu/dotenvng/internal/logging"
)

// buildCmdEnv layers envMap over the current process environment. Later
// entries win for os/exec, so sorting keeps the result stable.
func buildCmdEnv(envMap map[string]string) []string {
	cmdEnv := os.Environ()
	for _, k := range SortedKeys(envMap) {
		cmdEnv = append(cmdEnv, k+"="+envMap[k])
	}
	return cmdEnv
}

func setupCommand(command string, args []string, envMap map[string]string, workdir string) *exec.Cmd {
	cmd := exec.Command(command, args...)
	cmd.Env = buildCmdEnv(envMap)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if workdir != "" {
		cmd.Dir = workdir
	}
	// Do not set Setpgid: child stays in our process group so Ctrl+C kills it too.
	return cmd
}

func exitCodeFromError(runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), runErr
	}
	return -1, fmt.Errorf("failed to run command: %w", runErr)
}

func RunWithEnvFromMap(envMap map[string]string, workdir, command string, args []string) (int, error) {
	logging.For("runenv").WithField("command", command).Debug("running command")
	cmd := setupCommand(command, args, envMap, workdir)
	return exitCodeFromError(cmd.Run())
}

// RunWithEnvRedactedFromMap buffers the command output and writes it back
// with every injected value replaced by its key.
func RunWithEnvRedactedFromMap(envMap map[string]string, workdir, command string, args []string) (int, error) {
	result, runErr := RunWithEnvCapturedRedacted(envMap, workdir, command, args)
	_, _ = os.Stdout.WriteString(result.Stdout)
	_, _ = os.Stderr.WriteString(result.Stderr)
	return exitCodeFromError(runErr)
}

// minRedactLength keeps short values such as "1" or "true" from shredding
// unrelated output.
const minRedactLength = 4

// redactOutput replaces every value of envMap found in data. Longer values
// are replaced first so a value containing another is not split.
func redactOutput(data []byte, envMap map[string]string) []byte {
	keys := make([]string, 0, len(envMap))
	for k, v := range envMap {
		if len(v) >= minRedactLength {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(envMap[keys[i]]) != len(envMap[keys[j]]) {
			return len(envMap[keys[i]]) > len(envMap[keys[j]])
		}
		return keys[i] < keys[j]
	})
	result := string(data)
	for _, k := range keys {
		result = strings.ReplaceAll(result, envMap[k], "[REDACTED:"+k+"]")
	}
	return []byte(result)
}

type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func RunWithEnvCaptured(envMap map[string]string, workdir, command string, args []string) (*RunResult, error) {
	cmd := setupCommand(command, args, envMap, workdir)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := &RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	result.ExitCode, _ = exitCodeFromError(runErr)
	return result, runErr
}

func RunWithEnvCapturedRedacted(envMap map[string]string, workdir, command string, args []string) (*RunResult, error) {
	result, err := RunWithEnvCaptured(envMap, workdir, command, args)
	if result != nil {
		result.Stdout = string(redactOutput([]byte(result.Stdout), envMap))
		result.Stderr = string(redactOutput([]byte(result.Stderr), envMap))
	}
	return result, err
}

// devServers run until stopped and reload their own sources, but not the
// environment they were started with.
var devServers = map[string]bool{
	"next":            true,
	"vite":            true,
	"ng":              true,
	"vue-cli-service": true,
	"react-scripts":   true,
	"wrangler":        true,
	"serve":           true,
	"nodemon":         true,
}

var packageRunners = map[string]bool{"npm": true, "yarn": true, "pnpm": true, "bun": true}

// IsDevServerCommand reports whether line, a command followed by its
// arguments, looks like a long running dev server worth restarting on env
// changes. Package runners and node scripts count.
func IsDevServerCommand(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	exe := strings.TrimSuffix(filepath.Base(fields[0]), ".exe")
	switch {
	case devServers[exe], packageRunners[exe]:
		return true
	case exe == "node":
		return len(fields) > 1
	}
	return false
}

// ProcessRunner runs a long-lived command in its own process group so it can
// be stopped and restarted with a new environment.
type ProcessRunner struct {
	Command string
	Args    []string
	Env     map[string]string
	Workdir string
	Redact  bool

	cmd       *exec.Cmd
	exited    chan struct{}
	waitErr   error
	redactors sync.WaitGroup
}

// streamRedactor copies one output stream of the child line by line, so a
// value is never split across two reads.
type streamRedactor struct {
	envMap map[string]string
	dst    io.Writer
	pipeR  *os.File
}

func (sr *streamRedactor) run() {
	defer sr.pipeR.Close()
	rd := bufio.NewReader(sr.pipeR)
	for {
		line, err := rd.ReadBytes('\n')
		if len(line) > 0 {
			_, _ = sr.dst.Write(redactOutput(line, sr.envMap))
		}
		if err != nil {
			return
		}
	}
}

func (r *ProcessRunner) Start() error {
	r.cmd = exec.Command(r.Command, r.Args...)
	r.cmd.Env = buildCmdEnv(r.Env)
	r.cmd.Stdin = os.Stdin
	if r.Workdir != "" {
		r.cmd.Dir = r.Workdir
	}
	r.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var redactors []*streamRedactor
	if r.Redact {
		stdoutR, stdoutW, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("create stdout pipe: %w", err)
		}
		stderrR, stderrW, err := os.Pipe()
		if err != nil {
			_ = stdoutR.Close()
			_ = stdoutW.Close()
			return fmt.Errorf("create stderr pipe: %w", err)
		}
		r.cmd.Stdout = stdoutW
		r.cmd.Stderr = stderrW
		redactors = []*streamRedactor{
			{envMap: r.Env, dst: os.Stdout, pipeR: stdoutR},
			{envMap: r.Env, dst: os.Stderr, pipeR: stderrR},
		}
		defer func() {
			// The child holds its own copies; closing ours lets the
			// redactors see EOF.
			_ = stdoutW.Close()
			_ = stderrW.Close()
		}()
	} else {
		r.cmd.Stdout = os.Stdout
		r.cmd.Stderr = os.Stderr
	}

	if err := r.cmd.Start(); err != nil {
		for _, sr := range redactors {
			_ = sr.pipeR.Close()
		}
		return err
	}
	logging.For("runenv").WithField("pid", r.cmd.Process.Pid).Debug("process started")

	for _, sr := range redactors {
		r.redactors.Add(1)
		go func(sr *streamRedactor) {
			defer r.redactors.Done()
			sr.run()
		}(sr)
	}

	exited := make(chan struct{})
	r.exited = exited
	cmd := r.cmd
	go func() {
		err := cmd.Wait()
		r.waitErr = err
		close(exited)
	}()
	return nil
}

// Done is closed when the current process exits. It is nil before Start.
func (r *ProcessRunner) Done() <-chan struct{} {
	return r.exited
}

var execPgrep = func(ppid int) ([]byte, error) {
	return exec.Command("pgrep", "-P", strconv.Itoa(ppid)).Output()
}

// killFunc is injectable for tests; production uses syscall.Kill.
var killFunc = func(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}

// childPids lists the descendants of ppid depth first. pgrep exits non-zero
// when there are none.
func childPids(ppid int) []int {
	out, err := execPgrep(ppid)
	if err != nil {
		return nil
	}
	var pids []int
	for _, f := range strings.Fields(string(out)) {
		pid, err := strconv.Atoi(f)
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
		pids = append(pids, childPids(pid)...)
	}
	return pids
}

// killProcessTree signals every descendant, then the whole group. Processes
// that moved to their own group are reached through the first pass.
func killProcessTree(pgid int, sig syscall.Signal) error {
	for _, pid := range childPids(pgid) {
		_ = killFunc(pid, sig)
	}
	return killFunc(-pgid, sig)
}

// StopTimeout is how long Stop waits after SIGTERM before sending SIGKILL.
var StopTimeout = 5 * time.Second

// Stop terminates the process tree and waits for the process to exit.
func (r *ProcessRunner) Stop() error {
	if !r.Running() {
		return nil
	}
	pgid, err := syscall.Getpgid(r.cmd.Process.Pid)
	if err != nil || killProcessTree(pgid, syscall.SIGTERM) != nil {
		_ = r.cmd.Process.Kill()
		<-r.exited
		return nil
	}
	select {
	case <-r.exited:
		return nil
	case <-time.After(StopTimeout):
		_ = killProcessTree(pgid, syscall.SIGKILL)
		<-r.exited
		return fmt.Errorf("process did not exit gracefully, killed")
	}
}

func (r *ProcessRunner) Wait() error {
	if r.exited == nil {
		return fmt.Errorf("process not started")
	}
	<-r.exited
	r.redactors.Wait()
	return r.waitErr
}

func (r *ProcessRunner) ExitCode() int {
	if r.Running() || r.cmd == nil || r.cmd.ProcessState == nil {
		return -1
	}
	return r.cmd.ProcessState.ExitCode()
}

func (r *ProcessRunner) Running() bool {
	if r.exited == nil {
		return false
	}
	select {
	case <-r.exited:
		return false
	default:
		return true
	}
}
